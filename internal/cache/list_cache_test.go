package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ListCache_GetOrFetch(t *testing.T) {
	// given
	c := New[string](Config{TTL: time.Minute, Capacity: 4})
	fetches := 0
	fetch := func(_ context.Context) (string, error) {
		fetches++
		return "payload", nil
	}
	// when
	first, err := c.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	second, err := c.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	// then
	assert.Equal(t, "payload", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches, "second read within TTL must not fetch")
}

func Test_ListCache_Invalidate(t *testing.T) {
	// given
	c := New[string](Config{TTL: time.Minute, Capacity: 4})
	fetches := 0
	fetch := func(_ context.Context) (string, error) {
		fetches++
		return "payload", nil
	}
	_, err := c.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	// when
	c.Invalidate()
	_, err = c.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	// then
	assert.Equal(t, 2, fetches, "invalidation must force a refetch")
}

func Test_ListCache_FetchErrorIsNotCached(t *testing.T) {
	// given
	c := New[string](Config{TTL: time.Minute, Capacity: 4})
	fetchErr := errors.New("store unavailable")
	fetches := 0
	// when
	_, err := c.GetOrFetch(context.Background(), func(_ context.Context) (string, error) {
		fetches++
		return "", fetchErr
	})
	assert.Error(t, err)
	value, err := c.GetOrFetch(context.Background(), func(_ context.Context) (string, error) {
		fetches++
		return "payload", nil
	})
	// then
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
	assert.Equal(t, 2, fetches)
}
