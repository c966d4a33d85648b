//nolint
package store

import tokenvault "github.com/iov-one/tokenvault"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = tokenvault.ReadOnlyKVStore
type SetDeleter = tokenvault.SetDeleter
type KVStore = tokenvault.KVStore
type Batch = tokenvault.Batch
type Iterator = tokenvault.Iterator
type CacheableKVStore = tokenvault.CacheableKVStore
type KVCacheWrap = tokenvault.KVCacheWrap
type CommitKVStore = tokenvault.CommitKVStore
type CommitID = tokenvault.CommitID

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
