package scanner

import "testing"

func TestOwnerForPath_LongestPrefixWins(t *testing.T) {
	w := &Watcher{roots: map[string]string{
		"/media":       "lib-root",
		"/media/shows": "lib-shows",
	}}
	libraryID, ok := w.ownerForPath("/media/shows/Breaking Bad/ep1.mkv")
	if !ok || libraryID != "lib-shows" {
		t.Fatalf("expected lib-shows, got %q ok=%v", libraryID, ok)
	}
}

func TestOwnerForPath_RejectsOutsideAllRoots(t *testing.T) {
	w := &Watcher{roots: map[string]string{"/media/shows": "lib-shows"}}
	_, ok := w.ownerForPath("/etc/passwd")
	if ok {
		t.Fatal("expected no owner for path outside all roots")
	}
}
