package subtitles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSidecarPass_ParsesLanguageForcedAndSDH(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Movie.en.srt"), "1\n00:00:00,000 --> 00:00:01,000\nhi\n")
	mustWrite(t, filepath.Join(dir, "Movie.en.forced.srt"), "1\n00:00:00,000 --> 00:00:01,000\nhi\n")
	mustWrite(t, filepath.Join(dir, "Movie.en.sdh.srt"), "1\n00:00:00,000 --> 00:00:01,000\nhi\n")
	mustWrite(t, filepath.Join(dir, "unrelated.srt"), "x")

	e := NewExtractor("ffmpeg", t.TempDir())
	subs, err := e.SidecarPass(dir, "Movie", "item-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 sidecar matches, got %d: %+v", len(subs), subs)
	}

	var sawForced, sawSDH bool
	for _, s := range subs {
		if s.Language != "en" {
			t.Fatalf("expected language en, got %q", s.Language)
		}
		if s.Forced {
			sawForced = true
		}
		if s.SDH {
			sawSDH = true
		}
	}
	if !sawForced || !sawSDH {
		t.Fatalf("expected to see both forced and SDH flags set across matches")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
