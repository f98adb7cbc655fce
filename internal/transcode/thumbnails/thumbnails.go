// Package thumbnails generates scrubber-preview sprite sheets and their
// WebVTT index, supplementing spec §4 with the feature the distillation
// dropped but the original implementation carried
// (ferrite-transcode/src/thumbnails.rs). Grounded on the teacher's
// process-guard idiom for the ffmpeg invocation and mediaprobe's
// exec.CommandContext pattern for the ffprobe dimension probe.
package thumbnails

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ferrite-media/ferrite/internal/transcode/process"
)

// Config controls sprite sheet layout.
type Config struct {
	IntervalSeconds int // time between thumbnails
	ThumbWidth      int // per-thumbnail width; height auto-scales
	Columns         int // sprite grid columns
}

// DefaultConfig matches the original implementation's defaults.
func DefaultConfig() Config {
	return Config{IntervalSeconds: 10, ThumbWidth: 160, Columns: 10}
}

// Result describes a generated sprite sheet and its WebVTT index.
type Result struct {
	ImagePath   string
	VTTPath     string
	ThumbCount  int
	Columns     int
	Rows        int
	ThumbWidth  int
	ThumbHeight int
	Interval    int
}

// Generator produces sprite sheets via ffmpeg's tile filter.
type Generator struct {
	FfmpegPath  string
	FfprobePath string
}

func NewGenerator(ffmpegPath string) *Generator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Generator{FfmpegPath: ffmpegPath, FfprobePath: deriveFfprobePath(ffmpegPath)}
}

func deriveFfprobePath(ffmpegPath string) string {
	if strings.Contains(ffmpegPath, "ffmpeg") {
		return strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1)
	}
	return "ffprobe"
}

// Generate extracts one frame every IntervalSeconds, tiles them into a
// single JPEG sprite sheet, and writes a matching WebVTT scrubber index.
func (g *Generator) Generate(ctx context.Context, videoPath, outputDir, mediaID string, durationSecs float64, cfg Config) (*Result, error) {
	if durationSecs <= 0 {
		return nil, fmt.Errorf("thumbnails: video has no duration")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating thumbnail output directory: %w", err)
	}

	thumbCount := int((durationSecs + float64(cfg.IntervalSeconds) - 1) / float64(cfg.IntervalSeconds))
	if thumbCount == 0 {
		return nil, fmt.Errorf("thumbnails: video too short for thumbnails")
	}

	columns := cfg.Columns
	if columns > thumbCount {
		columns = thumbCount
	}
	rows := (thumbCount + columns - 1) / columns

	spritePath := filepath.Join(outputDir, mediaID+"_sprites.jpg")
	vttPath := filepath.Join(outputDir, mediaID+"_sprites.vtt")

	filter := fmt.Sprintf("fps=1/%d,scale=%d:-1,tile=%dx%d", cfg.IntervalSeconds, cfg.ThumbWidth, columns, rows)
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", filter,
		"-q:v", "5",
		spritePath,
	}

	guard, err := process.Start(ctx, g.FfmpegPath, args)
	if err != nil {
		return nil, fmt.Errorf("spawning ffmpeg for thumbnails: %w", err)
	}
	if err := guard.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg thumbnail generation failed: %w (stderr: %s)", err, guard.StderrTail())
	}

	if _, statErr := os.Stat(spritePath); statErr != nil {
		return nil, fmt.Errorf("sprite sheet was not created: %w", statErr)
	}

	spriteW, spriteH, err := g.probeDimensions(ctx, spritePath)
	if err != nil {
		return nil, err
	}
	thumbWidth := spriteW / columns
	thumbHeight := spriteH / rows

	vtt := generateVTT(mediaID, thumbCount, columns, thumbWidth, thumbHeight, cfg.IntervalSeconds, durationSecs)
	if err := os.WriteFile(vttPath, []byte(vtt), 0o644); err != nil {
		return nil, fmt.Errorf("writing webvtt index: %w", err)
	}

	return &Result{
		ImagePath:   spritePath,
		VTTPath:     vttPath,
		ThumbCount:  thumbCount,
		Columns:     columns,
		Rows:        rows,
		ThumbWidth:  thumbWidth,
		ThumbHeight: thumbHeight,
		Interval:    cfg.IntervalSeconds,
	}, nil
}

func (g *Generator) probeDimensions(ctx context.Context, imagePath string) (int, int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		imagePath,
	}
	guard, err := process.StartPiped(ctx, g.FfprobePath, args)
	if err != nil {
		return 0, 0, fmt.Errorf("spawning ffprobe for sprite dimensions: %w", err)
	}
	out, readErr := io.ReadAll(guard.Stdout)
	waitErr := guard.Wait()
	if waitErr != nil {
		return 0, 0, fmt.Errorf("probing sprite dimensions: %w", waitErr)
	}
	if readErr != nil {
		return 0, 0, fmt.Errorf("reading ffprobe output: %w", readErr)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("thumbnails: unexpected ffprobe output %q", string(out))
	}
	w, _ := strconv.Atoi(parts[0])
	h, _ := strconv.Atoi(parts[1])
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("thumbnails: could not probe sprite dimensions from %q", string(out))
	}
	return w, h, nil
}

// Exists reports whether a sprite sheet and its VTT index already exist
// for mediaID, so a repeat request can skip regeneration.
func Exists(outputDir, mediaID string) bool {
	_, spriteErr := os.Stat(filepath.Join(outputDir, mediaID+"_sprites.jpg"))
	_, vttErr := os.Stat(filepath.Join(outputDir, mediaID+"_sprites.vtt"))
	return spriteErr == nil && vttErr == nil
}

// generateVTT builds a WebVTT scrubber index, following the de-facto
// JW Player / Video.js sprite-fragment convention.
func generateVTT(mediaID string, thumbCount, columns, thumbWidth, thumbHeight, intervalSecs int, durationSecs float64) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	spriteFileName := mediaID + "_sprites.jpg"

	totalSecs := int(durationSecs + 0.999999)
	for i := 0; i < thumbCount; i++ {
		start := i * intervalSecs
		end := (i + 1) * intervalSecs
		if end > totalSecs {
			end = totalSecs
		}

		col := i % columns
		row := i / columns
		x := col * thumbWidth
		y := row * thumbHeight

		fmt.Fprintf(&b, "%s --> %s\n%s#xywh=%d,%d,%d,%d\n\n",
			formatVTTTime(start), formatVTTTime(end), spriteFileName, x, y, thumbWidth, thumbHeight)
	}

	return b.String()
}

func formatVTTTime(totalSecs int) string {
	h := totalSecs / 3600
	m := (totalSecs % 3600) / 60
	s := totalSecs % 60
	return fmt.Sprintf("%02d:%02d:%02d.000", h, m, s)
}
