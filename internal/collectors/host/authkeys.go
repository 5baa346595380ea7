package host

import (
	"context"
	"os"

	"github.com/yairfalse/vigil/pkg/types"
)

// AuthKeysCollector fingerprints the authorized_keys file as a whole: any
// added, removed, or reordered key changes the single entry.
type AuthKeysCollector struct {
	path string
}

// NewAuthKeysCollector creates a collector over the given authorized_keys
// path.
func NewAuthKeysCollector(path string) *AuthKeysCollector {
	return &AuthKeysCollector{path: path}
}

func (c *AuthKeysCollector) Category() types.Category { return types.CategoryAuthKeys }

// Collect returns a single sha256 fingerprint entry. A host with no
// authorized_keys file yields an empty capture, which is itself a valid
// baseline (the file appearing later shows up as an added fingerprint).
func (c *AuthKeysCollector) Collect(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum, err := hashFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return []string{sum}, nil
}
