package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

type color string

func colors() *Normalizer[color] {
	return New(map[string]color{
		"red":  "red",
		"blue": "blue",
		"navy": "blue",
	})
}

func TestNormalize(t *testing.T) {
	n := colors()
	assert.Equal(t, color("red"), n.Normalize("  RED "))
	assert.Equal(t, color("blue"), n.Normalize("Navy"))
	assert.Equal(t, color(""), n.Normalize("green"))

	_, ok := n.Lookup("green")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	n := colors()
	v, err := n.Parse("paint", "blue")
	require.NoError(t, err)
	assert.Equal(t, color("blue"), v)

	_, err = n.Parse("paint", "green")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, []string{"blue", "navy", "red"}, ce.Context()["valid"])
}
