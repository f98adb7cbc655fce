package thumbnails

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatVTTTime(t *testing.T) {
	cases := map[int]string{0: "00:00:00.000", 65: "00:01:05.000", 3661: "01:01:01.000"}
	for in, want := range cases {
		if got := formatVTTTime(in); got != want {
			t.Fatalf("formatVTTTime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateVTT_GridLayout(t *testing.T) {
	vtt := generateVTT("test-id", 4, 2, 160, 90, 10, 40.0)
	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Fatal("expected WEBVTT header")
	}
	for _, want := range []string{
		"00:00:00.000 --> 00:00:10.000",
		"test-id_sprites.jpg#xywh=0,0,160,90",
		"00:00:10.000 --> 00:00:20.000",
		"test-id_sprites.jpg#xywh=160,0,160,90",
		"00:00:20.000 --> 00:00:30.000",
		"test-id_sprites.jpg#xywh=0,90,160,90",
	} {
		if !strings.Contains(vtt, want) {
			t.Fatalf("expected %q in:\n%s", want, vtt)
		}
	}
}

func TestGenerateVTT_SingleThumb(t *testing.T) {
	vtt := generateVTT("short", 1, 1, 160, 90, 10, 5.0)
	if !strings.Contains(vtt, "00:00:00.000 --> 00:00:05.000") {
		t.Fatalf("expected clamped end time, got:\n%s", vtt)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IntervalSeconds != 10 || cfg.ThumbWidth != 160 || cfg.Columns != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestExists_False(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir, "nonexistent") {
		t.Fatal("expected false for nonexistent sprite sheet")
	}
}

func TestExists_True(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "m1_sprites.jpg"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "m1_sprites.vtt"), []byte("WEBVTT\n"), 0o644)
	if !Exists(dir, "m1") {
		t.Fatal("expected true once both files exist")
	}
}
