// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache.

Keys are strings. When the cache is full, adding a new key evicts the least
recently used entry and reports it to the eviction callback, if any.

With [WithCompression], string and []byte values are stored zstd-compressed
when that saves space and are decompressed transparently by [Cache.Get] and
[Cache.Peek]. Rendered HTML fragments compress well, other values are stored as-is.
*/
package lrucache

import (
	"container/list"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

type valueKind uint8

const (
	kindOther valueKind = iota
	kindBytes
	kindString
)

// Cache is a fixed-capacity LRU cache. Construct it with [New].
type Cache struct {
	size    int
	order   *list.List // front is most recently used
	items   map[string]*list.Element
	lock    sync.Mutex
	onEvict func(key string, value any)

	enc *zstd.Encoder
	dec *zstd.Decoder
}

type entry struct {
	key        string
	value      any
	kind       valueKind
	compressed bool
}

// Option configures a Cache.
type Option func(*Cache) error

// WithCompression stores string and []byte values zstd-compressed.
func WithCompression() Option {
	return func(c *Cache) error {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return errors.Wrap(err, "zstd encoder")
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return errors.Wrap(err, "zstd decoder")
		}

		c.enc, c.dec = enc, dec

		return nil
	}
}

// WithEvictCallback sets a function called with every entry evicted for capacity.
// It is not called for [Cache.Remove]. The callback runs without the cache lock held.
func WithEvictCallback(fn func(key string, value any)) Option {
	return func(c *Cache) error {
		c.onEvict = fn

		return nil
	}
}

// New creates a cache holding at most size entries.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Add stores value under key and marks it most recently used.
// It reports whether another entry was evicted to make room.
func (c *Cache) Add(key string, value any) bool {
	e := c.encode(key, value)

	c.lock.Lock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value = e
		c.lock.Unlock()

		return false
	}

	c.items[key] = c.order.PushFront(e)

	evicted := c.evictLocked()
	c.lock.Unlock()

	c.notify(evicted)

	return evicted != nil
}

// GetOrAdd returns the value of key, storing the result of create first if the
// key is missing. create runs under the cache lock and must not use the cache.
func (c *Cache) GetOrAdd(key string, create func() any) (value any, added bool) {
	c.lock.Lock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		e := el.Value.(*entry)
		c.lock.Unlock()

		v, _ := c.decode(e)

		return v, false
	}

	value = create()
	c.items[key] = c.order.PushFront(c.encode(key, value))

	evicted := c.evictLocked()
	c.lock.Unlock()

	c.notify(evicted)

	return value, true
}

// Get returns the value of key and marks it most recently used.
func (c *Cache) Get(key string) (any, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	c.order.MoveToFront(el)
	e := el.Value.(*entry)
	c.lock.Unlock()

	return c.decode(e)
}

// Peek returns the value of key without changing the LRU order.
func (c *Cache) Peek(key string) (any, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	e := el.Value.(*entry)
	c.lock.Unlock()

	return c.decode(e)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.order.Remove(el)
	delete(c.items, key)

	return true
}

// Keys returns the keys from least to most recently used.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return keys
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.order.Len()
}

func (c *Cache) evictLocked() *entry {
	if c.order.Len() <= c.size {
		return nil
	}

	el := c.order.Back()
	c.order.Remove(el)

	e := el.Value.(*entry)
	delete(c.items, e.key)

	return e
}

func (c *Cache) notify(e *entry) {
	if e == nil || c.onEvict == nil {
		return
	}

	v, ok := c.decode(e)
	if ok {
		c.onEvict(e.key, v)
	}
}

// encode compresses strings and byte slices when it saves space.
// Uncompressed byte slices are copied so callers cannot mutate the cache.
func (c *Cache) encode(key string, value any) *entry {
	e := &entry{key: key, value: value}

	var raw []byte

	switch v := value.(type) {
	case string:
		e.kind = kindString
		raw = []byte(v)
	case []byte:
		e.kind = kindBytes
		raw = v

		if v != nil {
			e.value = append([]byte{}, v...)
		}
	default:
		return e
	}

	if c.enc == nil || len(raw) == 0 {
		return e
	}

	if packed := c.enc.EncodeAll(raw, nil); len(packed) < len(raw) {
		e.value = packed
		e.compressed = true
	}

	return e
}

func (c *Cache) decode(e *entry) (any, bool) {
	if !e.compressed {
		if b, ok := e.value.([]byte); ok && b != nil {
			return append([]byte{}, b...), true
		}

		return e.value, true
	}

	raw, err := c.dec.DecodeAll(e.value.([]byte), nil)
	if err != nil {
		return nil, false
	}

	if e.kind == kindString {
		return string(raw), true
	}

	return raw, true
}
