package btrfstree

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"syscall"
	"testing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	msg = strings.TrimSuffix(msg, "\n")
	c.t.Log(msg)
	return origLen, nil
}

func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeTree answers tree searches over a fixed set of records of one tree.
type fakeTree struct {
	tree  uint64
	recs  []Record
	calls int
}

func newFakeTree(tree uint64, recs ...Record) *fakeTree {
	recs = slices.Clone(recs)
	slices.SortFunc(recs, func(a, b Record) int {
		return compareKeys(a.ObjectID, a.Type, a.Offset, b.ObjectID, b.Type, b.Offset)
	})
	return &fakeTree{tree: tree, recs: recs}
}

func (f *fakeTree) ControlCall(fd uintptr, request uint, buf []byte) error {
	if request != IocTreeSearch {
		return syscall.ENOTTY
	}
	f.calls++
	q, err := DecodeQuery(buf)
	if err != nil {
		return syscall.EINVAL
	}
	if q.Tree != f.tree {
		return syscall.ENOENT
	}
	resp := NewResponse(buf[:BufferSize])
	for _, rec := range f.recs {
		if resp.Count() >= q.MaxItems {
			break
		}
		if !q.InRange(rec.ObjectID, rec.Type, rec.Offset) || !q.TransID.Contains(rec.TransID) {
			continue
		}
		if !resp.Add(rec.Header, rec.Data) {
			if resp.Count() == 0 {
				return syscall.EOVERFLOW
			}
			break
		}
	}
	resp.Finish()
	return nil
}

func rec(obj uint64, typ ItemType, off uint64, data string) Record {
	return Record{
		Header: Header{TransID: 1, ObjectID: obj, Type: typ, Offset: off, Len: uint32(len(data))},
		Data:   []byte(data),
	}
}

func recsEqual(a, b []Record) bool {
	return slices.EqualFunc(a, b, func(x, y Record) bool {
		return x.Header == y.Header && bytes.Equal(x.Data, y.Data)
	})
}

func offsets(recs []Record) []uint64 {
	var offs []uint64
	for _, r := range recs {
		offs = append(offs, r.Offset)
	}
	return offs
}
