package snapshot

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/btree"
)

const memBTreeDegree = 16

type memStorage struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[string]*btree.BTreeG[memKV]
	closed  bool
	writer  bool
}

// newMemStorage returns a transient in-memory storage. Transactions see a
// copy-on-write clone of every bucket taken when they begin.
func newMemStorage() storage {
	s := &memStorage{buckets: make(map[string]*btree.BTreeG[memKV])}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("storage closed")
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, fmt.Errorf("storage closed")
		}
		s.writer = true
	}

	// Clone is lazy, so this is cheap even for large buckets.
	snap := make(map[string]*btree.BTreeG[memKV], len(s.buckets))
	for k, b := range s.buckets {
		snap[k] = b.Clone()
	}

	return &memTx{
		writable: writable,
		base:     s,
		buckets:  snap,
	}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	s.cond.Broadcast()
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	buckets  map[string]*btree.BTreeG[memKV]
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	if tx.closed {
		panic("tx is closed")
	}
	b := tx.buckets[name]
	if b == nil {
		return nil
	}
	return memBucket{tx: tx, items: b}
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, fmt.Errorf("tx not writable")
	}
	b := tx.buckets[name]
	if b == nil {
		b = btree.NewG(memBTreeDegree, memLess)
		tx.buckets[name] = b
	}
	return memBucket{tx: tx, items: b}, nil
}

func (tx *memTx) DeleteBucket(name string) error {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	if tx.buckets[name] == nil {
		return ErrBucketNotFound
	}
	delete(tx.buckets, name)
	return nil
}

func (tx *memTx) ForEachBucket(fn func(name string) error) error {
	names := make([]string, 0, len(tx.buckets))
	for name := range tx.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return fmt.Errorf("storage closed")
	}
	tx.base.buckets = tx.buckets
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

type memKV struct {
	key   []byte
	value []byte
}

func memLess(a, b memKV) bool {
	return bytes.Compare(a.key, b.key) < 0
}

type memBucket struct {
	tx    *memTx
	items *btree.BTreeG[memKV]
}

func (b memBucket) Get(key []byte) []byte {
	kv, ok := b.items.Get(memKV{key: key})
	if !ok {
		return nil
	}
	return kv.value
}

func (b memBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	b.items.ReplaceOrInsert(memKV{key: slices.Clone(key), value: slices.Clone(value)})
	return nil
}

func (b memBucket) Cursor() storageCursor {
	return &memCursor{items: b.items}
}

func (b memBucket) KeyCount() int { return b.items.Len() }

// memCursor re-descends the tree on every step; btree has no stable
// iterators.
type memCursor struct {
	items   *btree.BTreeG[memKV]
	cur     []byte
	started bool
}

func (c *memCursor) First() ([]byte, []byte) {
	return c.seek(nil, true)
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	return c.seek(seek, true)
}

func (c *memCursor) Next() ([]byte, []byte) {
	if !c.started {
		return c.First()
	}
	if c.cur == nil {
		return nil, nil
	}
	return c.seek(c.cur, false)
}

func (c *memCursor) seek(from []byte, inclusive bool) ([]byte, []byte) {
	c.started = true
	var found memKV
	var ok bool
	c.items.AscendGreaterOrEqual(memKV{key: from}, func(kv memKV) bool {
		if !inclusive && bytes.Equal(kv.key, from) {
			return true
		}
		found, ok = kv, true
		return false
	})
	if !ok {
		c.cur = nil
		return nil, nil
	}
	c.cur = found.key
	return found.key, found.value
}
