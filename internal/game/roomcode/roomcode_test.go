package roomcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.True(t, Valid(code), code)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABC234"))
	assert.False(t, Valid("ABC23"))
	assert.False(t, Valid("ABC230"), "0 is not in the alphabet")
	assert.False(t, Valid("abc234"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC234", Normalize("  abc234 "))
}

func TestUnique(t *testing.T) {
	seen := map[string]bool{}
	code, err := Unique(func(c string) bool {
		// the first draw is always taken
		if len(seen) == 0 {
			seen[c] = true
			return true
		}
		return seen[c]
	})
	require.NoError(t, err)
	assert.True(t, Valid(code))
	assert.False(t, seen[code])

	_, err = Unique(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrExhausted)
}
