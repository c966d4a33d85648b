package store

import (
	"bytes"

	"github.com/iov-one/tokenvault/errors"
)

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
)

// cacheIterator combines the items of a cache wrap with the iterator of
// the store it wraps, taking into consideration overwrites and deletes.
type cacheIterator struct {
	items   []keyer
	idx     int
	reverse bool

	parent     Iterator
	parentKey  []byte
	parentVal  []byte
	parentRead bool
	parentDone bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []keyer, parent Iterator, reverse bool) *cacheIterator {
	return &cacheIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

// Next returns the next not deleted entry of the merged view.
func (c *cacheIterator) Next() (key, value []byte, err error) {
	for {
		if err := c.peekParent(); err != nil {
			return nil, nil, err
		}
		hasOwn := c.idx < len(c.items)
		if !hasOwn && !c.parentRead {
			return nil, nil, errors.ErrIteratorDone
		}

		switch c.firstKey(hasOwn) {
		case parent:
			c.parentRead = false
			return c.parentKey, c.parentVal, nil
		case both:
			// Our value shadows the parent one.
			c.parentRead = false
		}

		item := c.items[c.idx]
		c.idx++
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
		// deleted item, skip it
	}
}

// Release releases the Iterator.
func (c *cacheIterator) Release() {
	c.parent.Release()
	c.items = nil
}

// peekParent loads the next parent element unless one is already waiting.
func (c *cacheIterator) peekParent() error {
	if c.parentRead || c.parentDone {
		return nil
	}
	key, value, err := c.parent.Next()
	switch {
	case err == nil:
		c.parentKey, c.parentVal, c.parentRead = key, value, true
		return nil
	case errors.ErrIteratorDone.Is(err):
		c.parentDone = true
		return nil
	default:
		return err
	}
}

// firstKey selects the source with the lowest key (highest for reverse)
func (c *cacheIterator) firstKey(hasOwn bool) source {
	if !c.parentRead {
		return us
	}
	if !hasOwn {
		return parent
	}
	cmp := bytes.Compare(c.items[c.idx].Key(), c.parentKey)
	if c.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return us
	case cmp > 0:
		return parent
	default:
		return both
	}
}
