package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreForTest(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := newStoreForTest(t)

	require.NoError(t, s.Set("k", []byte("v"), 0))
	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := newStoreForTest(t)

	_, err := s.Get("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := newStoreForTest(t)

	require.NoError(t, s.Set("k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := s.Exists("k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := newStoreForTest(t)

	require.NoError(t, s.Set("k", []byte("v"), 0))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("k"), "deleting a missing key is not an error")

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSetNX(t *testing.T) {
	s := newStoreForTest(t)

	ok, err := s.SetNX("alert", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX("alert", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX within the window must not win")

	value, err := s.Get("alert")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
}

func TestMemoryStoreSetNXAfterExpiry(t *testing.T) {
	s := newStoreForTest(t)

	ok, err := s.SetNX("alert", []byte("1"), 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, err = s.SetNX("alert", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key behaves as absent")
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := newStoreForTest(t)

	require.NoError(t, s.Set("k", []byte("abc"), 0))
	value, err := s.Get("k")
	require.NoError(t, err)
	value[0] = 'x'

	again, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
