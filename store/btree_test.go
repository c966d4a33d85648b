package store

import (
	"testing"

	"github.com/iov-one/tokenvault/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBase() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeStore(t *testing.T) {
	RunSuite(t, makeBase)
}

func TestBTreeCacheDiscardDropsWrites(t *testing.T) {
	kv, ops := LogableStore()

	cache := kv.CacheWrap()
	require.NoError(t, cache.Set([]byte("a"), []byte("1")))
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	cache.Discard()

	// Nothing was propagated to the parent.
	assert.Empty(t, ops.ShowOps())
	val, err := kv.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, val)

	cache = kv.CacheWrap()
	require.NoError(t, cache.Set([]byte("a"), []byte("1")))
	require.NoError(t, cache.Delete([]byte("b")))
	require.NoError(t, cache.Write())
	assert.Len(t, ops.ShowOps(), 2)
}

func TestNestedCacheWrapReadsThrough(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("k"), []byte("v")))

	outer := base.CacheWrap()
	inner := outer.CacheWrap()
	require.NoError(t, inner.Delete([]byte("k")))

	has, err := inner.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
	has, err = outer.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	it, err := inner.Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Release()
	_, _, err = it.Next()
	if !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want iterator done, got %+v", err)
	}
}
