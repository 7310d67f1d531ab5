package state

import (
	"context"
	"path/filepath"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store reads and replaces the persisted build snapshot.
type Store interface {
	// Load returns the previous snapshot in saved order. An absent snapshot
	// yields an empty, non-nil slice.
	Load(ctx context.Context) ([]artifact.Descriptor, error)
	// Save replaces the whole snapshot atomically.
	Save(ctx context.Context, builds []artifact.Descriptor) error
	// Path is the file backing the store.
	Path() string
	Close() error
}

// Open returns the store for backend rooted at path. An empty path selects
// the backend's default file name inside dataDir.
func Open(backend, path, dataDir string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		if path == "" {
			path = filepath.Join(dataDir, "builds.json")
		}
		return NewJSONFileStore(path), nil
	case BackendSQLite:
		if path == "" {
			path = filepath.Join(dataDir, "builds.db")
		}
		return NewSQLiteStore(path)
	default:
		return nil, errors.ConfigError("unknown state backend").
			WithContext("backend", backend).
			WithContext("valid", []string{BackendJSON, BackendSQLite}).
			Build()
	}
}

func decodeRecords(records []artifact.Record, source string) ([]artifact.Descriptor, error) {
	builds := make([]artifact.Descriptor, 0, len(records))
	for i, r := range records {
		d, err := artifact.FromRecord(r)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "persisted build is invalid").
				Fatal().
				WithContext("source", source).
				WithContext("index", i).
				Build()
		}
		builds = append(builds, d)
	}
	return builds, nil
}
