package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ferrite-media/ferrite/internal/utils"
)

// WalkEntry is one discovered media-class file, per spec §4.5 step 1.
type WalkEntry struct {
	Path string
	Size int64
}

// Walk recursively enumerates root, yielding every file whose lowercased
// extension belongs to libraryKind's class list.
func Walk(root, libraryKind string) ([]WalkEntry, error) {
	var entries []WalkEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !utils.IsMediaFile(path, libraryKind) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, WalkEntry{Path: path, Size: info.Size()})
		return nil
	})
	return entries, err
}

// WalkSubtrees walks only the given subtree roots, used by the incremental
// scan path (spec §4.9/§4.5).
func WalkSubtrees(roots []string, libraryKind string) ([]WalkEntry, error) {
	var all []WalkEntry
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		entries, err := Walk(root, libraryKind)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// hasPrefix reports whether path is under or equal to root, used to map
// library roots / changed subtrees to containment checks.
func hasPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
