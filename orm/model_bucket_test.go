package orm

import (
	"testing"

	proto "github.com/gogo/protobuf/proto"

	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/store"
)

type counter struct {
	Count int64  `protobuf:"varint,1,opt,name=count,proto3"`
	Label string `protobuf:"bytes,2,opt,name=label,proto3"`
}

func (m *counter) Reset()         { *m = counter{} }
func (m *counter) String() string { return proto.CompactTextString(m) }
func (*counter) ProtoMessage()    {}

func (m *counter) Validate() error {
	if m.Count < 0 {
		return errors.Wrap(errors.ErrInput, "negative count")
	}
	return nil
}

type other struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3"`
}

func (m *other) Reset()         { *m = other{} }
func (m *other) String() string { return proto.CompactTextString(m) }
func (*other) ProtoMessage()    {}
func (*other) Validate() error  { return nil }

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if err := b.Put(db, []byte("c1"), &counter{Count: 1, Label: "one"}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	if c1.Count != 1 || c1.Label != "one" {
		t.Fatalf("unexpected counter state: %+v", c1)
	}
	if err := b.Has(db, []byte("c1")); err != nil {
		t.Fatalf("c1 must exist: %s", err)
	}

	if err := b.Delete(db, []byte("c1")); err != nil {
		t.Fatalf("cannot delete c1 counter: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("c1"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
	if err := b.Has(db, []byte("c1")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model has: %s", err)
	}
}

func TestModelBucketPutValidation(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	cases := map[string]struct {
		Key     []byte
		Model   Model
		WantErr *errors.Error
	}{
		"valid": {
			Key:   []byte("a"),
			Model: &counter{Count: 4},
		},
		"invalid model": {
			Key:     []byte("a"),
			Model:   &counter{Count: -1},
			WantErr: errors.ErrInput,
		},
		"missing key": {
			Key:     nil,
			Model:   &counter{Count: 1},
			WantErr: errors.ErrEmpty,
		},
		"wrong type": {
			Key:     []byte("a"),
			Model:   &other{Name: "x"},
			WantErr: errors.ErrType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := b.Put(db, tc.Key, tc.Model)
			if tc.WantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				return
			}
			if !tc.WantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.WantErr, err)
			}
		})
	}
}

func TestModelBucketPrefixScan(t *testing.T) {
	db := store.MemStore()
	counters := NewModelBucket("cnts", &counter{})
	others := NewModelBucket("others", &other{})

	for i, key := range []string{"a1", "a2", "b1"} {
		if err := counters.Put(db, []byte(key), &counter{Count: int64(i)}); err != nil {
			t.Fatalf("cannot put %q: %s", key, err)
		}
	}
	// Entities of another bucket must never be returned.
	if err := others.Put(db, []byte("a3"), &other{Name: "x"}); err != nil {
		t.Fatalf("cannot put other: %s", err)
	}

	it, err := counters.PrefixScan(db, []byte("a"), false)
	if err != nil {
		t.Fatalf("cannot scan: %s", err)
	}
	var keys []string
	for {
		var c counter
		key, err := it.LoadNext(&c)
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		if err != nil {
			t.Fatalf("cannot load: %s", err)
		}
		keys = append(keys, string(key))
	}
	it.Release()
	if len(keys) != 2 || keys[0] != "a1" || keys[1] != "a2" {
		t.Fatalf("unexpected keys: %q", keys)
	}

	it, err = counters.PrefixScan(db, nil, true)
	if err != nil {
		t.Fatalf("cannot scan: %s", err)
	}
	n, err := Count(it, &counter{})
	if err != nil {
		t.Fatalf("cannot count: %s", err)
	}
	if n != 3 {
		t.Fatalf("want 3 counters, got %d", n)
	}
}
