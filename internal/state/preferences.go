package state

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// Preferences is the daemon's own small key set.
type Preferences struct {
	LastCheck          time.Time `json:"last_check,omitzero"`
	BootCheckCompleted bool      `json:"boot_check_completed"`
}

// PreferencesFile stores Preferences in daemon-state.json.
type PreferencesFile struct {
	path string
	mu   sync.Mutex
}

// NewPreferencesFile returns a preferences file at path.
func NewPreferencesFile(path string) *PreferencesFile {
	return &PreferencesFile{path: path}
}

// Load returns the zero Preferences when the file does not exist.
func (p *PreferencesFile) Load() (Preferences, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked()
}

func (p *PreferencesFile) loadLocked() (Preferences, error) {
	var prefs Preferences
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, errors.StorageError("failed to read daemon state").
			WithCause(err).
			WithContext("path", p.path).
			Build()
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return prefs, errors.StorageError("daemon state is corrupt").
			WithCause(err).
			WithContext("path", p.path).
			Build()
	}
	return prefs, nil
}

// Update applies fn to the current preferences and writes the result.
func (p *PreferencesFile) Update(fn func(*Preferences)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefs, err := p.loadLocked()
	if err != nil {
		return err
	}
	fn(&prefs)

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return errors.InternalError("failed to encode daemon state").WithCause(err).Build()
	}
	if err := writeFileAtomic(p.path, data, 0o644); err != nil {
		return errors.StorageError("failed to write daemon state").
			WithCause(err).
			WithContext("path", p.path).
			Build()
	}
	return nil
}
