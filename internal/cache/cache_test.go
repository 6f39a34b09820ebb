package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, dir string) *Cache {
	t.Helper()
	c, err := Open(dir, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := openTestCache(t, "")
	key := Key{URL: "http://example.org/doc.ttl", Format: "text/turtle"}

	_, err := c.Get(TableHTML, key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(TableHTML, key, []byte("<p>page</p>"), time.Minute))
	got, err := c.Get(TableHTML, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("<p>page</p>"), got)

	// tables do not share entries
	_, err = c.Get(TableText, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_KeyFieldsAreDistinct(t *testing.T) {
	c := openTestCache(t, "")
	a := Key{URL: "http://example.org/a", Format: "text/turtle"}
	b := Key{URL: "http://example.org/a", Format: "text/turtle", Encoding: "utf-8"}
	// same concatenation, different fields
	x := Key{URL: "ab", Format: "c"}
	y := Key{URL: "a", Format: "bc"}

	require.NoError(t, c.Set(TableText, a, []byte("a"), time.Minute))
	require.NoError(t, c.Set(TableText, x, []byte("x"), time.Minute))

	_, err := c.Get(TableText, b)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get(TableText, y)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_NonPositiveTTLIsNotStored(t *testing.T) {
	c := openTestCache(t, "")
	key := Key{URL: "http://example.org/private"}

	require.NoError(t, c.Set(TableHTML, key, []byte("x"), 0))
	_, err := c.Get(TableHTML, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_Expiry(t *testing.T) {
	c := openTestCache(t, "")
	key := Key{URL: "http://example.org/short"}

	require.NoError(t, c.Set(TableHTML, key, []byte("x"), time.Second))
	assert.Eventually(t, func() bool {
		_, err := c.Get(TableHTML, key)
		return err == ErrNotFound
	}, 5*time.Second, 100*time.Millisecond)
}

func TestCache_Delete(t *testing.T) {
	c := openTestCache(t, "")
	key := Key{URL: "http://example.org/doc"}

	require.NoError(t, c.Set(TableHTML, key, []byte("html"), time.Minute))
	require.NoError(t, c.Set(TableText, key, []byte("text"), time.Minute))
	require.NoError(t, c.Delete(key))

	for _, table := range []Table{TableHTML, TableText} {
		_, err := c.Get(table, key)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestCache_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	key := Key{URL: "http://example.org/doc"}

	c, err := Open(dir, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(TableText, key, []byte("kept"), time.Hour))
	require.NoError(t, c.Close())

	c = openTestCache(t, dir)
	got, err := c.Get(TableText, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}
