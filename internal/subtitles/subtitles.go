// Package subtitles implements the two-pass subtitle extraction described
// in spec §4.6: a sidecar pass that upserts existing subtitle files next
// to the media, and an embedded pass that pulls subtitle streams out of
// the container via the encoder.
package subtitles

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/mediaprobe"
)

// extractableEmbeddedCodecs are subtitle codecs the encoder can pull out
// of a container without transcoding the rest of the file.
var extractableEmbeddedCodecs = map[string]bool{
	"subrip": true, "srt": true, "ass": true, "ssa": true, "webvtt": true, "mov_text": true,
}

// knownLanguageCodes is a representative subset of ISO 639-1/2 codes used
// to recognize a language token in a sidecar subtitle filename. Real
// deployments can extend this; it is not meant to be exhaustive.
var knownLanguageCodes = map[string]bool{
	"en": true, "eng": true, "es": true, "spa": true, "fr": true, "fre": true, "fra": true,
	"de": true, "ger": true, "deu": true, "it": true, "ita": true, "ja": true, "jpn": true,
	"zh": true, "chi": true, "zho": true, "ko": true, "kor": true, "pt": true, "por": true,
	"ru": true, "rus": true, "nl": true, "dut": true, "nld": true,
}

var subtitleExtensions = map[string]string{
	".srt": "srt", ".ass": "ass", ".ssa": "ssa", ".vtt": "vtt",
}

// Extractor runs both subtitle passes for a media item.
type Extractor struct {
	BinaryPath  string
	SubtitleCacheDir string
}

func NewExtractor(binaryPath, cacheDir string) *Extractor {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Extractor{BinaryPath: binaryPath, SubtitleCacheDir: cacheDir}
}

// SidecarPass enumerates mediaDir for files whose stem starts with
// mediaStem and whose extension is a known subtitle format, parses the
// suffix for language/forced/SDH hints, and returns one ExternalSubtitle
// row per match (not yet persisted — caller upserts).
func (e *Extractor) SidecarPass(mediaDir, mediaStem, mediaItemID string) ([]database.ExternalSubtitle, error) {
	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mediaDir, err)
	}

	var results []database.ExternalSubtitle
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		format, ok := subtitleExtensions[ext]
		if !ok {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if !strings.HasPrefix(stem, mediaStem) {
			continue
		}
		suffix := strings.TrimPrefix(stem, mediaStem)

		info, err := entry.Info()
		if err != nil {
			continue
		}

		sub := database.ExternalSubtitle{
			MediaItemID: mediaItemID,
			Path:        filepath.Join(mediaDir, name),
			Format:      format,
			SizeBytes:   info.Size(),
		}
		for _, tok := range strings.Split(suffix, ".") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			switch {
			case tok == "":
				continue
			case tok == "forced":
				sub.Forced = true
			case tok == "sdh" || tok == "cc":
				sub.SDH = true
			case knownLanguageCodes[tok]:
				sub.Language = tok
			default:
				if sub.Title == "" {
					sub.Title = tok
				}
			}
		}
		results = append(results, sub)
	}
	return results, nil
}

// EmbeddedPass extracts each extractable subtitle stream from mediaPath
// into <SubtitleCacheDir>/<mediaItemID>/<stem>.embedded.<streamIdx>.<lang>.<ext>,
// reusing existing outputs (idempotent) and deleting any empty result.
func (e *Extractor) EmbeddedPass(ctx context.Context, mediaPath, mediaItemID string, streams []mediaprobe.Stream) ([]database.ExternalSubtitle, error) {
	stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	outDir := filepath.Join(e.SubtitleCacheDir, mediaItemID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating subtitle cache dir: %w", err)
	}

	var results []database.ExternalSubtitle
	for _, stream := range streams {
		if stream.Type != "subtitle" || !extractableEmbeddedCodecs[stream.CodecName] {
			continue
		}

		ext := "srt"
		codecArg := "srt"
		if stream.CodecName == "ass" || stream.CodecName == "ssa" {
			ext = stream.CodecName
			codecArg = "copy"
		}
		lang := stream.Language
		if lang == "" {
			lang = "und"
		}
		outName := fmt.Sprintf("%s.embedded.%d.%s.%s", stem, stream.Index, lang, ext)
		outPath := filepath.Join(outDir, outName)

		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			results = append(results, database.ExternalSubtitle{
				MediaItemID: mediaItemID, Path: outPath, Format: ext,
				Language: stream.Language, Forced: stream.Forced, SizeBytes: info.Size(),
			})
			continue
		}

		args := []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", mediaPath,
			"-map", fmt.Sprintf("0:%d", stream.Index),
			"-c:s", codecArg,
			outPath,
		}
		cmd := exec.CommandContext(ctx, e.BinaryPath, args...)
		if err := cmd.Run(); err != nil {
			continue
		}

		info, err := os.Stat(outPath)
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			os.Remove(outPath)
			continue
		}

		results = append(results, database.ExternalSubtitle{
			MediaItemID: mediaItemID, Path: outPath, Format: ext,
			Language: stream.Language, Forced: stream.Forced, SizeBytes: info.Size(),
		})
	}
	return results, nil
}
