// Package snapshot records the items of btrfs trees into a sorted key-value
// store and serves tree searches from the recording, so that code written
// against btrfstree.Searcher can run without a mounted filesystem.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/andreyvit/btrfstree"
)

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a recording of tree items. It implements btrfstree.Transport.
type Snapshot struct {
	st      storage
	logger  *slog.Logger
	verbose bool
	now     func() time.Time
	closed  atomic.Bool

	searches atomic.Uint64
	served   atomic.Uint64
	puts     atomic.Uint64
}

// Info describes a snapshot. It is updated by Capture.
type Info struct {
	Captured time.Time `msgpack:"captured"`
	Trees    []uint64  `msgpack:"trees"`
	Items    uint64    `msgpack:"items"`
}

// Open opens or creates a Bolt-backed snapshot file.
func Open(path string, opt Options) (*Snapshot, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return newSnapshot(newBoltStorage(bdb), opt), nil
}

// NewMemory returns an empty snapshot that lives in memory.
func NewMemory(opt Options) *Snapshot {
	return newSnapshot(newMemStorage(), opt)
}

func newSnapshot(st storage, opt Options) *Snapshot {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Snapshot{
		st:      st,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		now:     opt.Now,
	}
}

func (s *Snapshot) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.st.Close()
}

func (s *Snapshot) read(f func(tx storageTx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (s *Snapshot) write(f func(tx storageTx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Put stores one item of the given tree, replacing an item with the same key.
// h.Len is ignored.
func (s *Snapshot) Put(tree uint64, h btrfstree.Header, data []byte) error {
	return s.PutRecords(tree, []btrfstree.Record{{Header: h, Data: data}})
}

// PutRecords stores records of one tree in a single transaction.
func (s *Snapshot) PutRecords(tree uint64, recs []btrfstree.Record) error {
	err := s.write(func(tx storageTx) error {
		b, err := tx.CreateBucket(treeBucket(tree))
		if err != nil {
			return err
		}
		key := make([]byte, 0, itemKeySize)
		for _, rec := range recs {
			val, err := encodeItem(rec.TransID, rec.Data)
			if err != nil {
				return err
			}
			key = appendItemKey(key[:0], rec.ObjectID, rec.Type, rec.Offset)
			if err := b.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshot: put tree %d: %w", tree, err)
	}
	s.puts.Add(uint64(len(recs)))
	return nil
}

// Get returns the item stored under the given key.
func (s *Snapshot) Get(tree uint64, objectID uint64, typ btrfstree.ItemType, offset uint64) (btrfstree.Record, bool, error) {
	var rec btrfstree.Record
	var found bool
	err := s.read(func(tx storageTx) error {
		b := tx.Bucket(treeBucket(tree))
		if b == nil {
			return nil
		}
		v := b.Get(appendItemKey(nil, objectID, typ, offset))
		if v == nil {
			return nil
		}
		it, err := decodeItem(v)
		if err != nil {
			return err
		}
		rec = btrfstree.Record{
			Header: btrfstree.Header{
				TransID:  it.TransID,
				ObjectID: objectID,
				Offset:   offset,
				Type:     typ,
				Len:      uint32(len(it.Data)),
			},
			Data: it.Data,
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Trees returns the ids of the recorded trees in ascending order.
func (s *Snapshot) Trees() ([]uint64, error) {
	var trees []uint64
	err := s.read(func(tx storageTx) error {
		return tx.ForEachBucket(func(name string) error {
			if tree, ok := parseTreeBucket(name); ok {
				trees = append(trees, tree)
			}
			return nil
		})
	})
	slices.Sort(trees)
	return trees, err
}

// Count returns the number of items recorded for a tree.
func (s *Snapshot) Count(tree uint64) (int, error) {
	var n int
	err := s.read(func(tx storageTx) error {
		if b := tx.Bucket(treeBucket(tree)); b != nil {
			n = b.KeyCount()
		}
		return nil
	})
	return n, err
}

// Info returns the snapshot description, or a zero Info if nothing has been
// captured yet.
func (s *Snapshot) Info() (Info, error) {
	var info Info
	err := s.read(func(tx storageTx) error {
		b := tx.Bucket(metaBucket)
		if b == nil {
			return nil
		}
		v := b.Get(infoKey)
		if v == nil {
			return nil
		}
		return msgpack.Unmarshal(v, &info)
	})
	return info, err
}

func (s *Snapshot) updateInfo(trees []uint64, items uint64) error {
	return s.write(func(tx storageTx) error {
		b, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		var info Info
		if v := b.Get(infoKey); v != nil {
			if err := msgpack.Unmarshal(v, &info); err != nil {
				return err
			}
		}
		info.Captured = s.now()
		info.Items += items
		for _, tree := range trees {
			if !slices.Contains(info.Trees, tree) {
				info.Trees = append(info.Trees, tree)
			}
		}
		slices.Sort(info.Trees)
		v, err := msgpack.Marshal(&info)
		if err != nil {
			return err
		}
		return b.Put(infoKey, v)
	})
}

// Searcher returns a btrfstree.Searcher that searches this snapshot.
// opt.Transport is overridden.
func (s *Snapshot) Searcher(opt btrfstree.Options) *btrfstree.Searcher {
	opt.Transport = s
	return btrfstree.New(0, opt)
}

type Stats struct {
	Searches uint64
	Served   uint64
	Puts     uint64
}

func (s *Snapshot) Stats() Stats {
	return Stats{
		Searches: s.searches.Load(),
		Served:   s.served.Load(),
		Puts:     s.puts.Load(),
	}
}

func (s *Snapshot) logDebug(msg string, attrs ...slog.Attr) {
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}
