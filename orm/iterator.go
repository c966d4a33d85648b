package orm

import (
	"bytes"
	"reflect"

	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// ModelIterator over a domain of keys. The order depends on how the
// iterator was created.
// CONTRACT: No writes may happen within a domain while an iterator exists over it.
type ModelIterator interface {
	// LoadNext moves the iterator to the next sequential key in the
	// database and loads the current value into the passed destination.
	// The primary key of the loaded entity is returned.
	// ErrIteratorDone is returned when there are no more entities.
	LoadNext(dest Model) ([]byte, error)

	// Release releases the Iterator.
	Release()
}

type modelIterator struct {
	// this is the raw KVStoreIterator
	iterator tokenvault.Iterator
	// this is the bucketPrefix to strip from each key
	bucketPrefix []byte
	model        reflect.Type
}

var _ ModelIterator = (*modelIterator)(nil)

func (i *modelIterator) LoadNext(dest Model) ([]byte, error) {
	if tp := reflect.TypeOf(dest); tp.Kind() != reflect.Ptr || tp.Elem() != i.model {
		return nil, errors.Wrapf(errors.ErrType, "cannot use %T as %s", dest, i.model)
	}
	key, value, err := i.iterator.Next()
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(key, i.bucketPrefix) {
		return nil, errors.Wrapf(errors.ErrDatabase, "key with unexpected prefix: %X", key)
	}
	dest.Reset()
	if err := proto.Unmarshal(value, dest); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
	}
	return key[len(i.bucketPrefix):], nil
}

func (i *modelIterator) Release() {
	i.iterator.Release()
}

// Count returns the number of entities an iterator yields. The iterator is
// released.
func Count(it ModelIterator, dest Model) (int, error) {
	defer it.Release()
	var n int
	for {
		switch _, err := it.LoadNext(dest); {
		case err == nil:
			n++
		case errors.ErrIteratorDone.Is(err):
			return n, nil
		default:
			return n, err
		}
	}
}
