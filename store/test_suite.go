package store

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/tokenvault/errors"
)

// StoreConstructor returns a new, empty store and a function that releases
// it.
type StoreConstructor func() (base CacheableKVStore, cleanup func())

// RunSuite runs the tests every CacheableKVStore implementation must pass.
// The executor relies on these guarantees: a cache wrap is isolated from
// its parent until written, a discarded cache leaves no trace and
// iteration merges both layers in key order.
func RunSuite(t *testing.T, newStore StoreConstructor) {
	t.Run("cache isolation", func(t *testing.T) { testCacheIsolation(t, newStore) })
	t.Run("cache conflicts", func(t *testing.T) { testCacheConflicts(t, newStore) })
	t.Run("nested cache", func(t *testing.T) { testNestedCache(t, newStore) })
	t.Run("iterator", func(t *testing.T) { testIterator(t, newStore) })
}

func testCacheIsolation(t *testing.T, newStore StoreConstructor) {
	base, cleanup := newStore()
	defer cleanup()

	account, balance := []byte("account"), []byte("100")
	AssertGetHas(t, base, account, nil, false)
	require.NoError(t, base.Set(account, balance))
	AssertGetHas(t, base, account, balance, true)

	tx := base.CacheWrap()
	AssertGetHas(t, tx, account, balance, true)

	fee := []byte("fee")
	require.NoError(t, tx.Set(fee, []byte("5")))
	require.NoError(t, tx.Set(account, []byte("95")))
	AssertGetHas(t, tx, fee, []byte("5"), true)
	AssertGetHas(t, base, fee, nil, false)
	AssertGetHas(t, base, account, balance, true)

	failed := base.CacheWrap()
	require.NoError(t, failed.Delete(account))
	failed.Discard()
	AssertGetHas(t, base, account, balance, true)

	require.NoError(t, tx.Write())
	AssertGetHas(t, base, account, []byte("95"), true)
	AssertGetHas(t, base, fee, []byte("5"), true)
}

func testCacheConflicts(t *testing.T, newStore StoreConstructor) {
	ks := randKeys(4, 16)
	vs := randKeys(8, 40)

	cases := map[string]struct {
		parentOps []Op
		childOps  []Op
		// Key is what is queried, Value is what is expected.
		parentWant []Model
		childWant  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:  []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:   []Op{SetOp(ks[1], vs[5]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentWant: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childWant:  []Model{Pair(ks[1], vs[5]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete then set again": {
			parentOps:  []Op{SetOp(ks[0], vs[0])},
			childOps:   []Op{DelOp(ks[0]), SetOp(ks[0], vs[3])},
			parentWant: []Model{Pair(ks[0], vs[0])},
			childWant:  []Model{Pair(ks[0], vs[3])},
		},
		"delete missing key": {
			childOps:   []Op{DelOp(ks[2])},
			parentWant: []Model{Pair(ks[2], nil)},
			childWant:  []Model{Pair(ks[2], nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := newStore()
			defer cleanup()

			for _, op := range tc.parentOps {
				require.NoError(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				require.NoError(t, op.Apply(child))
			}

			for _, q := range tc.parentWant {
				AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childWant {
				AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			require.NoError(t, child.Write())
			for _, q := range tc.childWant {
				AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

func testNestedCache(t *testing.T, newStore StoreConstructor) {
	base, cleanup := newStore()
	defer cleanup()

	k := []byte("reserve")
	require.NoError(t, base.Set(k, []byte("1000")))

	outer := base.CacheWrap()
	require.NoError(t, outer.Set(k, []byte("900")))

	inner := outer.CacheWrap()
	AssertGetHas(t, inner, k, []byte("900"), true)
	require.NoError(t, inner.Set(k, []byte("800")))
	inner.Discard()
	AssertGetHas(t, outer, k, []byte("900"), true)

	inner = outer.CacheWrap()
	require.NoError(t, inner.Delete(k))
	require.NoError(t, inner.Write())
	AssertGetHas(t, outer, k, nil, false)
	AssertGetHas(t, base, k, []byte("1000"), true)

	require.NoError(t, outer.Write())
	AssertGetHas(t, base, k, nil, false)
}

func testIterator(t *testing.T, newStore StoreConstructor) {
	const size = 40

	parent := randModels(size, 8, 32)
	child := randModels(size, 8, 32)
	// Child overwrites a few parent keys and deletes a few others.
	overwritten := make([]Model, 5)
	for i := range overwritten {
		overwritten[i] = Pair(parent[i].Key, randBytes(32))
	}
	deleted := parent[5:10]

	var want []Model
	want = append(want, overwritten...)
	want = append(want, parent[10:]...)
	want = append(want, child...)
	want = sortModels(want)

	base, cleanup := newStore()
	defer cleanup()
	for _, m := range parent {
		require.NoError(t, base.Set(m.Key, m.Value))
	}
	cache := base.CacheWrap()
	for _, m := range append(child, overwritten...) {
		require.NoError(t, cache.Set(m.Key, m.Value))
	}
	for _, m := range deleted {
		require.NoError(t, cache.Delete(m.Key))
	}

	n := len(want)
	queries := []rangeQuery{
		{nil, nil, false, want},
		{want[10].Key, nil, false, want[10:]},
		{nil, want[n-8].Key, false, want[:n-8]},
		{want[17].Key, want[28].Key, false, want[17:28]},
		{nil, nil, true, reverse(want)},
		{want[34].Key, nil, true, reverse(want[34:])},
		{nil, want[19].Key, true, reverse(want[:19])},
		{want[6].Key, want[26].Key, true, reverse(want[6:26])},
	}
	for i, q := range queries {
		t.Run(fmt.Sprintf("query-%d", i), func(t *testing.T) {
			q.verify(t, cache)
		})
	}
}

// AssertGetHas checks that both Get and Has report the expected state of
// the key.
func AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.NoError(t, err)
	assert.Equal(t, has, exists)
}

// rangeQuery checks the results of an iteration.
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (q rangeQuery) verify(t testing.TB, kv ReadOnlyKVStore) {
	t.Helper()
	var (
		it  Iterator
		err error
	)
	if q.reverse {
		it, err = kv.ReverseIterator(q.start, q.end)
	} else {
		it, err = kv.Iterator(q.start, q.end)
	}
	require.NoError(t, err)
	defer it.Release()

	for i, want := range q.expected {
		key, value, err := it.Next()
		require.NoError(t, err)
		if !bytes.Equal(want.Key, key) {
			t.Fatalf("want key %d to be %X, got %X", i, want.Key, key)
		}
		assert.Equal(t, want.Value, value)
	}
	if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want ErrIteratorDone, got %+v", err)
	}
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

// reverse returns a copy of the slice with elements in reverse order.
func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

// sortModels returns a copy of the models sorted by key.
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}
