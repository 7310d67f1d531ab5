package artifact

import (
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// Kind classifies the release channel a build was published on.
type Kind int

const (
	KindNightly Kind = iota
	KindRelease
)

// String returns the canonical lowercase channel name.
func (k Kind) String() string {
	switch k {
	case KindRelease:
		return "release"
	default:
		return "nightly"
	}
}

// ParseKind maps a channel name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nightly":
		return KindNightly, nil
	case "release":
		return KindRelease, nil
	default:
		return KindNightly, errors.ValidationError("unknown release channel").
			WithContext("kind", s).
			Build()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
