package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

type mode string

const (
	modeFast mode = "fast"
	modeSafe mode = "safe"
)

func newModes() *Normalizer[mode] {
	return NewNormalizer("build.mode", map[string]mode{
		"fast":   modeFast,
		"safe":   modeSafe,
		"secure": modeSafe,
	}, modeSafe)
}

func TestNormalize(t *testing.T) {
	n := newModes()
	tests := []struct {
		in   string
		want mode
	}{
		{"fast", modeFast},
		{"  FAST ", modeFast},
		{"Secure", modeSafe},
		{"", modeSafe},
		{"turbo", modeSafe},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), tt.in)
	}
}

func TestParse(t *testing.T) {
	n := newModes()

	v, err := n.Parse(" Fast")
	require.NoError(t, err)
	assert.Equal(t, modeFast, v)

	v, err = n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, modeSafe, v)

	_, err = n.Parse("turbo")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, "fast, safe, secure", c.Context()["valid"])
}

func TestValidKeysIsACopy(t *testing.T) {
	n := newModes()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"fast", "safe", "secure"}, n.ValidKeys())
}
