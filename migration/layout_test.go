package migration

import (
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutOf(t *testing.T) {
	v1, err := LayoutOf(&MyModel{}, 1)
	require.NoError(t, err)
	assert.Equal(t, "migration.MyModel", v1.Model)
	assert.Equal(t, uint32(8), v1.Capacity)
	require.Len(t, v1.Fields, 2)
	assert.Equal(t, &LayoutField{Number: 1, Name: "metadata", Kind: "bytes:*tokenvault.Metadata", Since: 1}, v1.Fields[0])
	assert.Equal(t, &LayoutField{Number: 2, Name: "content", Kind: "bytes:string", Since: 1}, v1.Fields[1])

	v2, err := LayoutOf(&MyModel{}, 2)
	require.NoError(t, err)
	require.Len(t, v2.Fields, 3)
	assert.Equal(t, uint32(2), v2.Fields[2].Since)

	assert.NoError(t, CheckLayout(v1, v2))
}

// Each of the models below is an invalid evolution of MyModel.

type reorderedModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Extra    string               `protobuf:"bytes,3,opt,name=extra,proto3"`
	Content  string               `protobuf:"bytes,2,opt,name=content,proto3"`
}

type removedModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Extra    string               `protobuf:"bytes,3,opt,name=extra,proto3"`
}

type retypedModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Content  int64                `protobuf:"varint,2,opt,name=content,proto3"`
}

type insertedModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Extra    string               `protobuf:"bytes,2,opt,name=extra,proto3"`
	Content  string               `protobuf:"bytes,3,opt,name=content,proto3"`
}

type biggerModel struct {
	MyModel
}

func (biggerModel) ReservedSlots() uint32 { return 16 }

type overflowModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Content  string               `protobuf:"bytes,2,opt,name=content,proto3"`
	Extra    string               `protobuf:"bytes,9,opt,name=extra,proto3"`
}

func (overflowModel) ReservedSlots() uint32 { return 8 }

func TestCheckLayout(t *testing.T) {
	prev, err := LayoutOf(&MyModel{}, 1)
	require.NoError(t, err)

	withModel := func(t testing.TB, m interface{}) *Layout {
		l, err := LayoutOf(m, 2)
		require.NoError(t, err)
		// Pretend this is the same model, only the structure differs.
		l.Model = prev.Model
		if l.Capacity == 0 {
			l.Capacity = prev.Capacity
		}
		return l
	}

	cases := map[string]struct {
		Next    interface{}
		Version uint32
		WantErr *errors.Error
	}{
		"appended field": {
			Next:    &MyModel{},
			Version: 2,
		},
		"reordered fields": {
			Next:    &reorderedModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
		"removed field": {
			Next:    &removedModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
		"field kind changed": {
			Next:    &retypedModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
		"field inserted in the middle": {
			Next:    &insertedModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
		"reserved capacity changed": {
			Next:    biggerModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
		"position outside of reserved capacity": {
			Next:    overflowModel{},
			Version: 2,
			WantErr: errors.ErrSchema,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			next := withModel(t, tc.Next)
			err := CheckLayout(prev, next)
			if tc.WantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if !tc.WantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.WantErr, err)
			}
		})
	}
}

func TestLayoutBucketUpgrade(t *testing.T) {
	db := store.MemStore()
	b := NewLayoutBucket()

	require.NoError(t, b.Upgrade(db, 1, &MyModel{}))
	stored, err := b.Stored(db, &MyModel{})
	require.NoError(t, err)
	assert.Len(t, stored.Fields, 2)

	require.NoError(t, b.Upgrade(db, 2, &MyModel{}))
	stored, err = b.Stored(db, &MyModel{})
	require.NoError(t, err)
	assert.Len(t, stored.Fields, 3)
	assert.Equal(t, uint32(2), stored.Version)

	// Same version again is not an upgrade.
	if err := b.Upgrade(db, 2, &MyModel{}); !errors.ErrSchema.Is(err) {
		t.Fatalf("want schema error, got %+v", err)
	}
}
