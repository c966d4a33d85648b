package store

// Recorder is implemented by stores returned by NewRecordingStore.
type Recorder interface {
	// KVPairs returns all keys changed so far. The value is the value
	// written or nil for a delete.
	KVPairs() map[string][]byte
}

// NewRecordingStore returns a store writing through to db that keeps track
// of every changed key. Writes done using a batch or a cache wrap of the
// returned store are recorded when written.
func NewRecordingStore(db KVStore) CacheableKVStore {
	return &recordingStore{
		KVStore: db,
		changes: make(map[string][]byte),
	}
}

type recordingStore struct {
	KVStore
	changes map[string][]byte
}

var _ CacheableKVStore = (*recordingStore)(nil)
var _ Recorder = (*recordingStore)(nil)

func (r *recordingStore) KVPairs() map[string][]byte {
	return r.changes
}

func (r *recordingStore) Set(key, value []byte) error {
	if err := r.KVStore.Set(key, value); err != nil {
		return err
	}
	r.changes[string(key)] = value
	return nil
}

func (r *recordingStore) Delete(key []byte) error {
	if err := r.KVStore.Delete(key); err != nil {
		return err
	}
	r.changes[string(key)] = nil
	return nil
}

func (r *recordingStore) NewBatch() Batch {
	return &recordingBatch{
		Batch:   r.KVStore.NewBatch(),
		changes: r.changes,
	}
}

// CacheWrap returns a cache on top of this store. Changes are recorded
// when the cache is written.
func (r *recordingStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(r, r.NewBatch(), nil)
}

// recordingBatch records changes only after they were successfully
// written.
type recordingBatch struct {
	Batch
	changes map[string][]byte
	pending []Op
}

func (b *recordingBatch) Set(key, value []byte) error {
	if err := b.Batch.Set(key, value); err != nil {
		return err
	}
	b.pending = append(b.pending, SetOp(key, value))
	return nil
}

func (b *recordingBatch) Delete(key []byte) error {
	if err := b.Batch.Delete(key); err != nil {
		return err
	}
	b.pending = append(b.pending, DelOp(key))
	return nil
}

func (b *recordingBatch) Write() error {
	if err := b.Batch.Write(); err != nil {
		return err
	}
	for _, op := range b.pending {
		// value is nil for delete operations
		b.changes[string(op.key)] = op.value
	}
	b.pending = nil
	return nil
}
