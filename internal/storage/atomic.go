package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	vigilerrors "github.com/yairfalse/vigil/internal/errors"
	"github.com/yairfalse/vigil/pkg/types"
)

// AtomicPublisher publishes the status record with write-then-rename
// semantics so readers never observe a torn record, even under an
// overlapping invocation.
type AtomicPublisher struct {
	path string
}

// NewAtomicPublisher creates a publisher writing to the well-known path.
func NewAtomicPublisher(path string) *AtomicPublisher {
	return &AtomicPublisher{path: path}
}

// Publish serializes the record and atomically replaces the published file.
// Any failure leaves the previous record untouched and is fatal to the
// invocation.
func (p *AtomicPublisher) Publish(record *types.StatusRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to encode status record: %w", err))
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".tmp.*")
	if err != nil {
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to close temp file: %w", err))
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to set permissions: %w", err))
	}

	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return vigilerrors.New(vigilerrors.KindPublish, p.path, fmt.Errorf("failed to replace status record: %w", err))
	}
	return nil
}

// ReadStatus loads the published record back, for the status command.
func ReadStatus(path string) (*types.StatusRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status record %s: %w", path, err)
	}
	var record types.StatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode status record %s: %w", path, err)
	}
	return &record, nil
}
