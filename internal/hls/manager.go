package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ferrite-media/ferrite/internal/events"
	"github.com/ferrite-media/ferrite/internal/logger"
	"github.com/ferrite-media/ferrite/internal/transcode"
	"github.com/ferrite-media/ferrite/internal/transcode/ffmpeg"
	"github.com/ferrite-media/ferrite/internal/transcode/process"
)

const (
	firstSegmentWait  = 15 * time.Second
	segmentWaitLimit  = 30 * time.Second
	initPollInterval  = 100 * time.Millisecond
	segmentPollInterval = 500 * time.Millisecond
	destroyGrace      = 2 * time.Second
	idleSweepInterval = 15 * time.Second
)

// VariantRequest is one ABR rung's worth of encoder inputs, assembled by
// the caller from the classifier's decision and the ABR ladder (spec
// §4.1/§4.2/§4.3's "ABR variant selection").
type VariantRequest struct {
	Label           string
	Resolution      string // "WxH", empty for audio-only
	Bandwidth       int
	FFmpeg          ffmpeg.Request
	SegmentDuration int
	FrameRate       float64
}

// Manager owns every live HLS session. It is safe for concurrent use.
type Manager struct {
	FfmpegBinary string
	BaseDir      string
	Limiter      *transcode.Limiter

	// Events is optional; when set, playback.session_started/session_ended
	// are published for webhook dispatch and SSE endpoints to consume.
	Events *events.Bus

	mu         sync.RWMutex
	sessionsByID map[string]*Session
	mediaOwner   map[ownerKey][]string // ownerKey -> session ids, variants sharing an owner

	creationLocks sync.Map // media id -> *sync.Mutex
}

// NewManager constructs a Manager rooted at baseDir (config's
// DataConfig.HLSCacheDir()).
func NewManager(ffmpegBinary, baseDir string, limiter *transcode.Limiter) *Manager {
	return &Manager{
		FfmpegBinary: ffmpegBinary,
		BaseDir:      baseDir,
		Limiter:      limiter,
		sessionsByID: make(map[string]*Session),
		mediaOwner:   make(map[ownerKey][]string),
	}
}

func (m *Manager) creationLock(mediaItemID string) *sync.Mutex {
	actual, _ := m.creationLocks.LoadOrStore(mediaItemID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Create implements spec §4.3 step 1 for a single owner's full variant
// set: it destroys any prior sessions under the owner key, then spawns
// one encoder per variant. variants must be pre-ordered highest-first;
// that order is preserved in the returned slice and in MasterPlaylist.
func (m *Manager) Create(ctx context.Context, mediaItemID, playbackID string, variants []VariantRequest, startSeconds float64) ([]*Session, error) {
	lock := m.creationLock(mediaItemID)
	lock.Lock()
	defer lock.Unlock()

	key := ownerKey{MediaID: mediaItemID, PlaybackID: playbackID}
	m.destroyOwner(key)

	sessions := make([]*Session, 0, len(variants))
	for _, v := range variants {
		s, err := m.spawn(ctx, mediaItemID, playbackID, v, startSeconds)
		if err != nil {
			for _, created := range sessions {
				m.Destroy(created.ID)
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}

	m.mu.Lock()
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	m.mediaOwner[key] = ids
	m.mu.Unlock()

	return sessions, nil
}

// CreateFastSeek spawns a single top-variant encoder instead of the full
// ladder, per spec §4.3's "fast-seek optimization".
func (m *Manager) CreateFastSeek(ctx context.Context, mediaItemID, playbackID string, top VariantRequest, startSeconds float64) (*Session, error) {
	sessions, err := m.Create(ctx, mediaItemID, playbackID, []VariantRequest{top}, startSeconds)
	if err != nil {
		return nil, err
	}
	return sessions[0], nil
}

// GetOrCreate implements spec §4.3 step 6's reuse heuristic: an existing
// session set under the owner is reused if its start offset is within
// one segment duration of the requested start, otherwise it is destroyed
// and a fresh set created.
func (m *Manager) GetOrCreate(ctx context.Context, mediaItemID, playbackID string, variants []VariantRequest, startSeconds float64, segmentDuration time.Duration) ([]*Session, error) {
	key := ownerKey{MediaID: mediaItemID, PlaybackID: playbackID}

	m.mu.RLock()
	ids := append([]string(nil), m.mediaOwner[key]...)
	m.mu.RUnlock()

	if len(ids) > 0 {
		m.mu.RLock()
		existing := make([]*Session, 0, len(ids))
		for _, id := range ids {
			if s, ok := m.sessionsByID[id]; ok {
				existing = append(existing, s)
			}
		}
		m.mu.RUnlock()

		if len(existing) == len(ids) && len(existing) > 0 {
			delta := existing[0].StartSeconds - startSeconds
			if delta < 0 {
				delta = -delta
			}
			if delta <= segmentDuration.Seconds() {
				return existing, nil
			}
		}
	}

	return m.Create(ctx, mediaItemID, playbackID, variants, startSeconds)
}

// spawn acquires one capacity permit for the encoder it starts and hands
// its release to the Session, so the permit is held for the session's
// entire lifetime (spec §5: "an HLS seek acquires the same permit") and
// only released on Destroy, not on Create's return.
func (m *Manager) spawn(ctx context.Context, mediaItemID, playbackID string, v VariantRequest, startSeconds float64) (*Session, error) {
	if !m.Limiter.TryAcquire() {
		return nil, fmt.Errorf("hls: transcode capacity exceeded")
	}
	release := func() { m.Limiter.Release() }

	sessionID := uuid.New().String()
	dir := filepath.Join(m.BaseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		release()
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	v.FFmpeg.SeekSeconds = startSeconds
	args := buildArgs(v.FFmpeg, v.SegmentDuration, v.FrameRate, dir)

	guard, logsDone, err := process.StartWithSessionLogs(ctx, m.FfmpegBinary, args, dir, sessionID)
	if err != nil {
		os.RemoveAll(dir)
		release()
		return nil, fmt.Errorf("starting hls encoder: %w", err)
	}

	session := newSession(sessionID, mediaItemID, playbackID, v.Label, v.Resolution, v.Bandwidth, startSeconds, dir, guard, logsDone, release)

	m.mu.Lock()
	m.sessionsByID[sessionID] = session
	m.mu.Unlock()

	go watchStderr(session)
	waitForFirstSegment(session)

	m.publish("playback.session_started", session)

	return session, nil
}

func (m *Manager) publish(eventType string, s *Session) {
	if m.Events == nil {
		return
	}
	m.Events.Publish(events.Event{
		Type:   eventType,
		Source: "hls",
		Payload: map[string]interface{}{
			"session_id":    s.ID,
			"media_item_id": s.MediaItemID,
			"playback_id":   s.PlaybackID,
			"variant":       s.VariantLabel,
		},
	})
}

// waitForFirstSegment polls the session directory for the first playlist
// containing #EXTINF:, returning within ~15s either way (spec §4.3 step
// 1: "return ready within ~15s or return ready-but-empty").
func waitForFirstSegment(s *Session) {
	deadline := time.Now().Add(firstSegmentWait)
	playlistPath := filepath.Join(s.Dir, "playlist.m3u8")
	for time.Now().Before(deadline) {
		if !s.alive() || s.isFatal() {
			return
		}
		data, err := os.ReadFile(playlistPath)
		if err == nil && containsExtinf(data) {
			return
		}
		time.Sleep(150 * time.Millisecond)
	}
}

func containsExtinf(data []byte) bool {
	for i := 0; i+7 < len(data); i++ {
		if string(data[i:i+7]) == "#EXTINF" {
			return true
		}
	}
	return false
}

// Destroy implements spec §4.3 step 9: unregister, SIGTERM with a 2s
// grace period then SIGKILL, remove the output directory.
func (m *Manager) Destroy(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessionsByID[sessionID]
	if ok {
		delete(m.sessionsByID, sessionID)
		for key, ids := range m.mediaOwner {
			filtered := ids[:0]
			for _, id := range ids {
				if id != sessionID {
					filtered = append(filtered, id)
				}
			}
			if len(filtered) == 0 {
				delete(m.mediaOwner, key)
			} else {
				m.mediaOwner[key] = filtered
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := s.guard.Stop(destroyGrace); err != nil {
		logger.Warn("stopping hls encoder", []logger.Field{logger.String("session_id", sessionID), logger.Err("cause", err)})
	}
	if s.logsDone != nil {
		s.logsDone()
	}
	if s.release != nil {
		s.release()
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		logger.Warn("removing hls session directory", []logger.Field{logger.String("session_id", sessionID), logger.Err("cause", err)})
	}
	m.publish("playback.session_ended", s)
}

func (m *Manager) destroyOwner(key ownerKey) {
	m.mu.RLock()
	ids := append([]string(nil), m.mediaOwner[key]...)
	m.mu.RUnlock()
	for _, id := range ids {
		m.Destroy(id)
	}
}

// Seek implements spec §4.3 step 5: always create a new session set,
// destroying any prior sessions under the owner key first.
func (m *Manager) Seek(ctx context.Context, mediaItemID, playbackID string, variants []VariantRequest, startSeconds float64) ([]*Session, error) {
	return m.Create(ctx, mediaItemID, playbackID, variants, startSeconds)
}

// Get looks up a session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessionsByID[sessionID]
	return s, ok
}

// Shutdown implements spec §4.3 step 8: destroy every active session in
// parallel so no encoder outlives the server.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessionsByID))
	for id := range m.sessionsByID {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			m.Destroy(id)
		}(id)
	}
	wg.Wait()
}
