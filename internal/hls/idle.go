package hls

import (
	"context"
	"strings"
	"time"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// watchStderr polls the encoder's captured stderr tail until it exits,
// setting the session's fatal flag the moment a known unrecoverable
// pattern appears (spec §4.3 step 1). Guard exposes only an accumulated
// tail buffer rather than a line stream, so this checks the tail's
// current contents on each tick instead of reading lines as they arrive.
func watchStderr(s *Session) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.guard.Done():
			return
		case <-ticker.C:
			tail := strings.ToLower(s.guard.StderrTail())
			for _, pattern := range fatalPatterns {
				if strings.Contains(tail, pattern) {
					s.setFatal()
					logger.Warn("hls encoder hit fatal stderr pattern", []logger.Field{
						logger.String("session_id", s.ID), logger.String("pattern", pattern),
					})
					return
				}
			}
		}
	}
}

// RunIdleSweep implements spec §4.3 step 7: wakes every 15s, destroying
// sessions whose playlist hasn't been touched within sessionTimeout, and
// killing (but not removing) the encoder of sessions that are alive but
// haven't served a segment within ffmpegIdleSecs.
func (m *Manager) RunIdleSweep(ctx context.Context, sessionTimeout, ffmpegIdleTimeout time.Duration) {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(sessionTimeout, ffmpegIdleTimeout)
		}
	}
}

func (m *Manager) sweepOnce(sessionTimeout, ffmpegIdleTimeout time.Duration) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessionsByID))
	for _, s := range m.sessionsByID {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	now := time.Now()
	for _, s := range sessions {
		lastPlaylist, lastSegment := s.snapshot()

		if now.Sub(lastPlaylist) > sessionTimeout {
			logger.Info("destroying idle hls session", []logger.Field{logger.String("session_id", s.ID)})
			m.Destroy(s.ID)
			continue
		}

		if s.alive() && now.Sub(lastSegment) > ffmpegIdleTimeout {
			logger.Info("killing idle hls encoder, keeping session", []logger.Field{logger.String("session_id", s.ID)})
			if err := s.guard.Stop(destroyGrace); err != nil {
				logger.Warn("stopping idle hls encoder", []logger.Field{logger.String("session_id", s.ID), logger.Err("cause", err)})
			}
		}
	}
}
