// Package utils provides small file-system helpers shared by the scanner
// and watcher: per-library-kind media extension classes and the media-file
// predicate the directory walker uses to decide what to probe.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/ferrite-media/ferrite/internal/database"
)

// videoExtensions backs the movie and tv library kinds (spec §4.5 step 1's
// "class list for the library's kind").
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".3gp": true, ".ogv": true, ".ts": true,
}

// audioExtensions backs the music library kind.
var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".aac": true, ".ogg": true, ".wma": true,
	".m4a": true, ".opus": true, ".aiff": true, ".wav": true, ".alac": true,
}

// ExtensionClassFor returns the set of lowercased extensions (including the
// leading dot) that belong to a library of the given kind.
func ExtensionClassFor(libraryKind string) map[string]bool {
	switch libraryKind {
	case database.LibraryKindMusic:
		return audioExtensions
	default:
		return videoExtensions
	}
}

// IsMediaFile reports whether path's extension belongs to the library
// kind's class list.
func IsMediaFile(path string, libraryKind string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ExtensionClassFor(libraryKind)[ext]
}
