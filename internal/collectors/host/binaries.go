// Package host implements the local-filesystem fact collectors: binary
// hashes, set-uid inventory, human user accounts, and the authorized-keys
// fingerprint. Collectors are read-only and trust what the filesystem
// reports.
package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/yairfalse/vigil/pkg/types"
)

// BinaryHashCollector hashes a fixed list of security-critical binaries.
// Entries are "sha256  path" lines so a moved hash is attributable.
type BinaryHashCollector struct {
	binaries []string
}

// NewBinaryHashCollector creates a collector over the configured binary list.
func NewBinaryHashCollector(binaries []string) *BinaryHashCollector {
	return &BinaryHashCollector{binaries: binaries}
}

func (c *BinaryHashCollector) Category() types.Category { return types.CategoryBinaries }

// Collect hashes every configured binary that exists. A binary missing from
// the host is skipped rather than failing the capture, so image variants
// with different package sets keep a stable baseline.
func (c *BinaryHashCollector) Collect(ctx context.Context) ([]string, error) {
	entries := make([]string, 0, len(c.binaries))
	for _, path := range c.binaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum, err := hashFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", path, err)
		}
		entries = append(entries, fmt.Sprintf("%s  %s", sum, path))
	}
	return entries, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
