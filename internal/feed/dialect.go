package feed

import (
	"bytes"
	"encoding/json"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// ParseResult is the outcome of decoding one response body.
type ParseResult struct {
	Builds []artifact.Descriptor
	// Skipped counts entries dropped for missing or invalid fields.
	Skipped int
	// ServerMessage is the message attached to a "failed" result, if any.
	ServerMessage string
	// Failed is true when the server reported result "failed".
	Failed bool
}

// Dialect is one server response format.
type Dialect interface {
	Name() string
	// Query returns the query string, without the leading '?'.
	Query() string
	// URL returns the full query URL.
	URL() string
	Parse(body []byte) (ParseResult, error)
}

// NewDialect returns the dialect named by cfg.Dialect.
func NewDialect(cfg Config) (Dialect, error) {
	cfg = cfg.withDefaults()
	switch cfg.Dialect {
	case DialectEOS:
		return eosDialect{cfg: cfg}, nil
	case DialectLegacy:
		return legacyDialect{cfg: cfg}, nil
	default:
		return nil, errors.ConfigError("unknown feed dialect").
			WithContext("dialect", cfg.Dialect).
			WithContext("valid", []string{DialectEOS, DialectLegacy}).
			Build()
	}
}

// decodeObject splits a top-level JSON object into its members. Anything
// other than an object, including null, is a parse error.
func decodeObject(body []byte, dialect string) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, malformed(dialect, "malformed update server response").WithCause(err).Build()
	}
	if members == nil {
		return nil, malformed(dialect, "update server response is not a JSON object").Build()
	}
	return members, nil
}

// decodeMember decodes the named member into v, failing when it is absent or
// null.
func decodeMember(members map[string]json.RawMessage, name string, v any, dialect string) error {
	raw, ok := members[name]
	if !ok || isNull(raw) {
		return malformed(dialect, "update server response is missing a required field").
			WithContext("field", name).
			Build()
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return malformed(dialect, "update server response has an invalid field").
			WithCause(err).
			WithContext("field", name).
			Build()
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func malformed(dialect, msg string) *errors.ErrorBuilder {
	return errors.ParseError(msg).WithContext("dialect", dialect)
}
