package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrite-media/ferrite/internal/database"
)

func TestWalk_FiltersByExtensionClass(t *testing.T) {
	dir := t.TempDir()
	mustTouch(t, filepath.Join(dir, "movie.mkv"))
	mustTouch(t, filepath.Join(dir, "cover.jpg"))
	mustTouch(t, filepath.Join(dir, "notes.txt"))

	entries, err := Walk(dir, database.LibraryKindMovie)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "movie.mkv" {
		t.Fatalf("expected only movie.mkv, got %+v", entries)
	}
}

func TestWalk_MusicLibraryUsesAudioExtensions(t *testing.T) {
	dir := t.TempDir()
	mustTouch(t, filepath.Join(dir, "track.flac"))
	mustTouch(t, filepath.Join(dir, "video.mkv"))

	entries, err := Walk(dir, database.LibraryKindMusic)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "track.flac" {
		t.Fatalf("expected only track.flac, got %+v", entries)
	}
}

func TestHasPrefix(t *testing.T) {
	if !hasPrefix("/media/shows/X/ep1.mkv", "/media/shows/X") {
		t.Fatal("expected containment")
	}
	if hasPrefix("/media/shows/XY/ep1.mkv", "/media/shows/X") {
		t.Fatal("expected no containment for sibling-prefix directory")
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
