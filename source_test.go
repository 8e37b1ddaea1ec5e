package prefetch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]string{"a", "b"})

	v, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok, err = src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok, err = src.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	// Staying exhausted.
	_, ok, _ = src.Next()
	assert.False(t, ok)
}

func TestSliceSource_Empty(t *testing.T) {
	src := NewSliceSource[int](nil)
	_, ok, err := src.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFuncSource(t *testing.T) {
	calls := 0
	fail := errors.New("third call fails")
	src := FuncSource[int](func() (int, bool, error) {
		calls++
		if calls == 3 {
			return 0, false, fail
		}
		return calls, true, nil
	})

	v, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, _, _ = src.Next()
	_, _, err = src.Next()
	assert.ErrorIs(t, err, fail)
}
