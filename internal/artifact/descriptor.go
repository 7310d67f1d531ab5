package artifact

import (
	"slices"
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// Descriptor describes one discoverable build. The zero value is not valid;
// construct with New or FromRecord.
type Descriptor struct {
	name        string
	timestamp   int64
	apiLevel    int
	downloadURL string
	checksum    string
	kind        Kind
}

// New validates the fields and returns an immutable Descriptor.
func New(name string, timestamp int64, apiLevel int, downloadURL, checksum string, kind Kind) (Descriptor, error) {
	if strings.TrimSpace(name) == "" {
		return Descriptor{}, errors.ValidationError("build name is empty").
			WithContext("url", downloadURL).
			Build()
	}
	if timestamp <= 0 {
		return Descriptor{}, errors.ValidationError("build timestamp must be positive").
			WithContext("name", name).
			WithContext("timestamp", timestamp).
			Build()
	}
	return Descriptor{
		name:        name,
		timestamp:   timestamp,
		apiLevel:    apiLevel,
		downloadURL: downloadURL,
		checksum:    checksum,
		kind:        kind,
	}, nil
}

// Name is the build file name.
func (d Descriptor) Name() string { return d.name }

// Timestamp is the build time in Unix seconds.
func (d Descriptor) Timestamp() int64 { return d.timestamp }

// APILevel is the Android SDK level the build targets.
func (d Descriptor) APILevel() int { return d.apiLevel }

// DownloadURL is the absolute URL of the build file.
func (d Descriptor) DownloadURL() string { return d.downloadURL }

// Checksum is the MD5 sum published for the file.
func (d Descriptor) Checksum() string { return d.checksum }

// Kind is the release channel.
func (d Descriptor) Kind() Kind { return d.kind }

// IsNewerThan reports whether the build is strictly newer than the installed one.
func (d Descriptor) IsNewerThan(installedTimestamp int64) bool {
	return d.timestamp > installedTimestamp
}

// Equal reports whether both descriptors describe the same build.
func (d Descriptor) Equal(other Descriptor) bool {
	return d == other
}

// Contains reports whether list holds a descriptor equal to d.
func Contains(list []Descriptor, d Descriptor) bool {
	return slices.Contains(list, d)
}

// SortLatestFirst returns a copy ordered by descending timestamp. Entries with
// equal timestamps keep their original relative order.
func SortLatestFirst(list []Descriptor) []Descriptor {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b Descriptor) int {
		switch {
		case a.timestamp > b.timestamp:
			return -1
		case a.timestamp < b.timestamp:
			return 1
		default:
			return 0
		}
	})
	return out
}
