// Package normalization maps free-form configuration strings onto enum values.
package normalization

import (
	"slices"
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// Normalizer resolves case- and whitespace-insensitive names, including
// aliases, to values of T.
type Normalizer[T comparable] struct {
	values map[string]T
}

// New returns a Normalizer over values. Keys are matched after trimming and
// lowercasing, so they should be given in lower case.
func New[T comparable](values map[string]T) *Normalizer[T] {
	return &Normalizer[T]{values: values}
}

func clean(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Lookup reports the value for raw and whether it is known.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// Normalize returns the value for raw, or the zero value when unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	v, _ := n.Lookup(raw)
	return v
}

// Parse is Normalize with a validation error naming field for unknown input.
func (n *Normalizer[T]) Parse(field, raw string) (T, error) {
	v, ok := n.Lookup(raw)
	if !ok {
		return v, errors.ValidationError("unknown value").
			WithContext("field", field).
			WithContext("value", raw).
			WithContext("valid", n.Keys()).
			Build()
	}
	return v, nil
}

// Keys returns the accepted names in sorted order.
func (n *Normalizer[T]) Keys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
