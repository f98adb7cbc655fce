package hls

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ferrite-media/ferrite/internal/config"
)

// ErrPathTraversal is returned when a requested segment filename tries to
// escape the session directory.
var ErrPathTraversal = fmt.Errorf("hls: invalid segment filename")

// ErrSegmentTimeout is returned when a segment or init file doesn't
// appear within its wait window.
var ErrSegmentTimeout = fmt.Errorf("hls: segment not ready")

// ErrSessionDead is returned when the encoder exited or hit a fatal
// stderr pattern before the requested segment became available.
var ErrSessionDead = fmt.Errorf("hls: encoder stopped")

// ValidateSegmentName implements spec §4.3 step 4's path-traversal check:
// the filename must be a bare name with no separators or ".." segments.
func ValidateSegmentName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return ErrPathTraversal
	}
	return nil
}

// ServeSegment implements spec §4.3 step 4: waits for init.mp4 to exist,
// or for a seg_NNN.m4s to appear in the playlist's #EXTINF listing, then
// returns its bytes and content type. Aborts early if the encoder dies
// or hits a fatal stderr pattern.
func (m *Manager) ServeSegment(s *Session, fileName string, mimeMode config.SegmentMIMEMode) ([]byte, string, error) {
	if err := ValidateSegmentName(fileName); err != nil {
		return nil, "", err
	}

	path := filepath.Join(s.Dir, fileName)

	if fileName == "init.mp4" {
		if err := pollUntil(s, segmentWaitLimit, initPollInterval, func() bool {
			_, statErr := os.Stat(path)
			return statErr == nil
		}); err != nil {
			return nil, "", err
		}
	} else {
		if err := pollUntil(s, segmentWaitLimit, segmentPollInterval, func() bool {
			return segmentListed(s.Dir, fileName)
		}); err != nil {
			return nil, "", err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	s.touchSegment()

	return data, contentType(mimeMode), nil
}

func pollUntil(s *Session, limit, interval time.Duration, ready func() bool) error {
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		if s.isFatal() {
			return ErrSessionDead
		}
		if !s.alive() {
			// Check once more, in case the encoder's final flush landed
			// on disk, before declaring the session dead.
			if ready() {
				return nil
			}
			return ErrSessionDead
		}
		if ready() {
			return nil
		}
		time.Sleep(interval)
	}
	return ErrSegmentTimeout
}

// segmentListed reports whether fileName appears in the session's
// playlist, meaning the encoder finished writing it and moved on.
func segmentListed(dir, fileName string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "playlist.m3u8"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == fileName {
			return true
		}
	}
	return false
}

func contentType(mode config.SegmentMIMEMode) string {
	if mode == config.SegmentMIMEVideoISOSegment {
		return "video/iso.segment"
	}
	return "video/mp4"
}
