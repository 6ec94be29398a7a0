// Package btrfstest provides an in-memory filesystem stand-in and byte
// fixtures for testing code that searches btrfs trees.
package btrfstest

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/btrfstree"
	"github.com/andreyvit/btrfstree/snapshot"
)

var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestFS is a memory snapshot plus a Searcher that searches it.
type TestFS struct {
	*snapshot.Snapshot
	Searcher *btrfstree.Searcher

	T       testing.TB
	TransID uint64
}

func New(t testing.TB) *TestFS {
	logger := Logger(t)
	snap := snapshot.NewMemory(snapshot.Options{
		Logger:    logger,
		Verbose:   true,
		IsTesting: true,
		Now:       func() time.Time { return Start },
	})
	fs := &TestFS{
		Snapshot: snap,
		Searcher: snap.Searcher(btrfstree.Options{Logger: logger, Verbose: true}),
		T:        t,
		TransID:  1,
	}
	t.Cleanup(func() {
		if err := snap.Close(); err != nil {
			t.Error(err)
		}
	})
	return fs
}

// Logger returns a logger that writes to t.Log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
	}))
}

// Add stores an item with the current TransID.
func (fs *TestFS) Add(tree, objectID uint64, typ btrfstree.ItemType, offset uint64, data []byte) {
	fs.T.Helper()
	h := btrfstree.Header{TransID: fs.TransID, ObjectID: objectID, Type: typ, Offset: offset}
	require.NoError(fs.T, fs.Put(tree, h, data))
}

// Search performs one search and returns copies of its records.
func (fs *TestFS) Search(q btrfstree.Query) []btrfstree.Record {
	fs.T.Helper()
	buf := make([]byte, btrfstree.BufferSize)
	res, err := fs.Searcher.Search(q, buf)
	require.NoError(fs.T, err)
	recs, err := res.Collect()
	require.NoError(fs.T, err)
	return recs
}

// Walk returns copies of all records in the range of q.
func (fs *TestFS) Walk(q btrfstree.Query) []btrfstree.Record {
	fs.T.Helper()
	var recs []btrfstree.Record
	err := fs.Searcher.Walk(context.Background(), q, func(rec btrfstree.Record) error {
		recs = append(recs, rec.Clone())
		return nil
	})
	require.NoError(fs.T, err)
	return recs
}

// Keys returns the keys of recs, for compact assertions.
func Keys(recs []btrfstree.Record) []btrfstree.Key {
	keys := make([]btrfstree.Key, 0, len(recs))
	for _, rec := range recs {
		keys = append(keys, rec.Key())
	}
	return keys
}

// Offsets returns the key offsets of recs.
func Offsets(recs []btrfstree.Record) []uint64 {
	offs := make([]uint64, 0, len(recs))
	for _, rec := range recs {
		offs = append(offs, rec.Offset)
	}
	return offs
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	msg = strings.TrimSuffix(msg, "\n")
	c.t.Log(msg)
	return origLen, nil
}
