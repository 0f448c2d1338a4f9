package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Path: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("wechat", "my-post", "hash1", []byte("<p>hi</p>")))

	got, ok, err := s.Get("wechat", "my-post", "hash1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("<p>hi</p>"), got)
}

func TestGetStaleHashIsMiss(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("jike", "p", "old-hash", []byte("text")))

	_, ok, err := s.Get("jike", "p", "new-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrComputeCachesOnce(t *testing.T) {
	s := openTestStore(t)

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := s.GetOrCompute("x", "slug", "h", compute)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), got)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	s := openTestStore(t)

	boom := errors.New("compute failed")
	_, err := s.GetOrCompute("x", "slug", "h", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok, err := s.Get("x", "slug", "h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDropAll(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("blog", "a", "h", []byte("x")))
	require.NoError(t, s.DropAll())

	_, ok, err := s.Get("blog", "a", "h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlatformsDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("x", "slug", "h", []byte("one")))
	require.NoError(t, s.Put("jike", "slug", "h", []byte("two")))

	got, ok, err := s.Get("x", "slug", "h")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), got)
}
