package host

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yairfalse/vigil/pkg/types"
)

// SUIDCollector enumerates set-uid files under the configured roots.
type SUIDCollector struct {
	roots []string
}

// NewSUIDCollector creates a collector over the configured search roots.
func NewSUIDCollector(roots []string) *SUIDCollector {
	return &SUIDCollector{roots: roots}
}

func (c *SUIDCollector) Category() types.Category { return types.CategorySUID }

// Collect walks each root and records every regular file with the set-uid
// bit. Unreadable subtrees are skipped; a root that does not exist at all is
// not an error, matching the binary collector's tolerance for image variants.
func (c *SUIDCollector) Collect(ctx context.Context) ([]string, error) {
	var entries []string
	for _, root := range c.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Permission denied on a subtree is expected on a hardened
				// host; keep walking.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Mode().IsRegular() && info.Mode()&os.ModeSetuid != 0 {
				entries = append(entries, path)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return entries, nil
}
