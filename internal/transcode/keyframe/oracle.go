// Package keyframe answers "what is the nearest preceding keyframe at or
// before time t" so seeks land on clean GOP boundaries instead of forcing
// the encoder to decode from the previous keyframe internally.
package keyframe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Oracle answers keyframe queries against one inspector binary.
type Oracle struct {
	BinaryPath string

	mu    sync.Mutex
	index map[string][]float64 // path -> sorted keyframe pts seconds (lazy full-file index)
}

func NewOracle(binaryPath string) *Oracle {
	if binaryPath == "" {
		binaryPath = "ffprobe"
	}
	return &Oracle{BinaryPath: binaryPath, index: make(map[string][]float64)}
}

// Nearest returns the largest keyframe pts <= t+0.5s, or (0, false) when
// none is found within the probed window.
//
// Method: invoke the inspector with -read_intervals starting at
// max(0, t-15) for 5s, selecting the first video stream, and scan packet
// lines for the latest one whose flags begin with "K" and whose pts is at
// most t+0.5s.
func (o *Oracle) Nearest(ctx context.Context, path string, t time.Duration) (time.Duration, bool) {
	seconds := t.Seconds()
	windowStart := seconds - 15
	if windowStart < 0 {
		windowStart = 0
	}

	interval := fmt.Sprintf("%.3f%%+5", windowStart)
	cmd := exec.CommandContext(ctx, o.BinaryPath,
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags",
		"-read_intervals", interval,
		"-of", "csv=p=0",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, false
	}

	var best float64
	found := false
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		pts, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		flags := parts[1]
		if !strings.HasPrefix(flags, "K") {
			continue
		}
		if pts > seconds+0.5 {
			continue
		}
		if !found || pts > best {
			best = pts
			found = true
		}
	}

	if !found {
		return 0, false
	}
	return time.Duration(best * float64(time.Second)), true
}

// Index lazily builds (or returns the cached) full-file keyframe index
// using -skip_frame nokey across the whole stream, deduplicated so entries
// are at least 2s apart. Built on first seek past the quick-window method,
// then cached for the life of the Oracle.
func (o *Oracle) Index(ctx context.Context, path string) ([]float64, error) {
	o.mu.Lock()
	if cached, ok := o.index[path]; ok {
		o.mu.Unlock()
		return cached, nil
	}
	o.mu.Unlock()

	cmd := exec.CommandContext(ctx, o.BinaryPath,
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time",
		"-skip_frame", "nokey",
		"-of", "csv=p=0",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("indexing keyframes for %s: %w", path, err)
	}

	var points []float64
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pts, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		if len(points) == 0 || pts-points[len(points)-1] >= 2.0 {
			points = append(points, pts)
		}
	}
	sort.Float64s(points)

	o.mu.Lock()
	o.index[path] = points
	o.mu.Unlock()
	return points, nil
}
