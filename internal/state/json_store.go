package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
)

const snapshotVersion = 1

type snapshotFile struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Builds  []artifact.Record `json:"builds"`
}

// JSONFileStore keeps the snapshot in a single JSON document.
type JSONFileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewJSONFileStore returns a store backed by the file at path. The file is
// created on first Save.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path, now: time.Now}
}

// Path returns the snapshot file location.
func (s *JSONFileStore) Path() string { return s.path }

// Load reads the snapshot. A missing file is an empty snapshot; fields
// this version does not know are ignored.
func (s *JSONFileStore) Load(ctx context.Context) ([]artifact.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.CancelledError("snapshot load cancelled").WithCause(err).Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []artifact.Descriptor{}, nil
		}
		return nil, errors.StorageError("failed to read snapshot").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.StorageError("snapshot file is corrupt").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}
	if file.Version > snapshotVersion {
		slog.Warn("Snapshot was written by a newer version; reading known fields",
			logfields.Path(s.path),
			slog.Int("version", file.Version))
	}
	return decodeRecords(file.Builds, s.path)
}

// Save writes the snapshot through a temp file and rename.
func (s *JSONFileStore) Save(ctx context.Context, builds []artifact.Descriptor) error {
	if err := ctx.Err(); err != nil {
		return errors.CancelledError("snapshot save cancelled").WithCause(err).Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshotFile{
		Version: snapshotVersion,
		SavedAt: s.now().UTC(),
		Builds:  artifact.Records(builds),
	}, "", "  ")
	if err != nil {
		return errors.InternalError("failed to encode snapshot").WithCause(err).Build()
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return errors.StorageError("failed to write snapshot").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}
	return nil
}

// Close is a no-op.
func (s *JSONFileStore) Close() error { return nil }
