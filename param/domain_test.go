package param

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainContains(t *testing.T) {
	d := NewDomain("alloy", "echo", "nova")

	assert.True(t, d.Contains("alloy"))
	assert.True(t, d.Contains("nova"))
	assert.False(t, d.Contains("shimmer"))
	assert.False(t, d.Contains(""))
}

func TestDomainValuesReturnsCopy(t *testing.T) {
	d := NewDomain("a", "b", "c")

	values := d.Values()
	values[0] = "mutated"

	assert.Equal(t, "a", d[0], "mutating the returned slice must not affect the domain")
}

func TestDomainValidate(t *testing.T) {
	d := NewDomain("tts-1", "tts-1-hd")

	assert.NoError(t, d.Validate("tts-1"))

	err := d.Validate("tts-2")
	require.Error(t, err)

	var invalidErr *InvalidValueError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "tts-2", invalidErr.Value)
	assert.Contains(t, err.Error(), "Valid options are: tts-1, tts-1-hd")
}

func TestPickReturnsMember(t *testing.T) {
	d := NewDomain("a", "b", "c", "d")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		v, err := Pick(rng, d)
		require.NoError(t, err)
		assert.True(t, d.Contains(v), "Pick returned %q which is not in the domain", v)
	}
}

func TestPickEmptyDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := Pick(rng, Domain[string]{})
	assert.True(t, errors.Is(err, ErrEmptyDomain))
}

func TestPickDeterministicWithSeed(t *testing.T) {
	d := NewDomain("alloy", "echo", "fable", "onyx", "nova", "shimmer")

	first := make([]string, 10)
	for i := range first {
		v, err := Pick(rand.New(rand.NewSource(int64(i))), d)
		require.NoError(t, err)
		first[i] = v
	}

	// Same seeds must reproduce the same sequence.
	for i := range first {
		v, err := Pick(rand.New(rand.NewSource(int64(i))), d)
		require.NoError(t, err)
		assert.Equal(t, first[i], v)
	}
}

func TestPickUniformCoverage(t *testing.T) {
	d := NewDomain("a", "b", "c")
	rng := rand.New(rand.NewSource(7))

	seen := make(map[string]int)
	for i := 0; i < 300; i++ {
		v, err := Pick(rng, d)
		require.NoError(t, err)
		seen[v]++
	}

	// Every member should appear with a healthy margin over 300 draws.
	for _, member := range d {
		assert.Greater(t, seen[member], 50, "member %q drawn too rarely", member)
	}
}
