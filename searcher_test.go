package btrfstree

import (
	"context"
	"errors"
	"syscall"
	"testing"
)

func TestSearch(t *testing.T) {
	ft := newFakeTree(5,
		rec(256, InodeItemKey, 0, "i256"),
		rec(256, InodeRefKey, 256, "r256"),
		rec(257, InodeItemKey, 0, "i257"),
	)
	s := New(3, Options{Transport: ft, Logger: testLogger(t), Verbose: true})

	buf := make([]byte, BufferSize)
	res := must(s.Search(NewQuery(5).WithObjectID(Exact[uint64](256)), buf))
	recs := must(res.Collect())
	if len(recs) != 2 || recs[0].Type != InodeItemKey || recs[1].Type != InodeRefKey || string(recs[1].Data) != "r256" {
		t.Errorf("records = %v", recs)
	}

	st := s.Stats()
	if st.Searches != 1 || st.Failures != 0 || st.Items != 2 || st.BufferBytes != BufferSize {
		t.Errorf("stats = %+v", st)
	}

	// larger buffers count in full even though records only use a few bytes
	must(s.Search(NewQuery(5).WithObjectID(Exact[uint64](257)), make([]byte, 2*BufferSize)))
	if st := s.Stats(); st.Searches != 2 || st.Items != 3 || st.BufferBytes != 3*BufferSize {
		t.Errorf("stats = %+v", st)
	}
}

func TestSearch_transportErrorPassthrough(t *testing.T) {
	var calls int
	s := New(3, Options{Logger: testLogger(t), Transport: TransportFunc(func(fd uintptr, request uint, buf []byte) error {
		calls++
		if fd != 3 || request != IocTreeSearch || len(buf) != BufferSize {
			t.Errorf("ControlCall(%d, %x, %d bytes)", fd, request, len(buf))
		}
		return syscall.EPERM
	})})

	_, err := s.Search(NewQuery(5), make([]byte, BufferSize))
	if err != syscall.EPERM {
		t.Errorf("err = %#v, expected EPERM unchanged", err)
	}
	if calls != 1 || s.Stats().Failures != 1 {
		t.Errorf("calls = %d, stats = %+v", calls, s.Stats())
	}
}

func TestSearch_rejectsBeforeCalling(t *testing.T) {
	s := New(0, Options{Logger: testLogger(t), Transport: TransportFunc(func(uintptr, uint, []byte) error {
		t.Fatal("transport called")
		return nil
	})})

	_, err := s.Search(NewQuery(5), make([]byte, BufferSize-1))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("err = %v, expected ErrBufferTooSmall", err)
	}
	_, err = s.Search(NewQuery(5).WithType(Between[ItemType](5, 4)), make([]byte, BufferSize))
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Errorf("err = %v, expected *QueryError", err)
	}
}

func TestSearch_malformedResponse(t *testing.T) {
	s := New(0, Options{Logger: testLogger(t), Transport: TransportFunc(func(fd uintptr, request uint, buf []byte) error {
		setResultCount(buf, 1)
		putHeader(buf[SearchKeySize:], Header{ObjectID: 1, Len: BufferSize})
		return nil
	})})
	res := must(s.Search(NewQuery(5), make([]byte, BufferSize)))
	_, err := res.Collect()
	var de *DataError
	if !errors.As(err, &de) {
		t.Errorf("err = %v, expected *DataError", err)
	}
}

func TestOpen_missing(t *testing.T) {
	_, err := Open(t.TempDir()+"/missing", Options{})
	if err == nil {
		t.Fatal("Open of a missing path succeeded")
	}
}

func TestOpen_close(t *testing.T) {
	s := must(Open(t.TempDir(), Options{Transport: newFakeTree(5)}))
	ensure(s.Close())
	ensure(s.Close())
}

func TestPager(t *testing.T) {
	var recs []Record
	for i := range 10 {
		recs = append(recs, rec(256, ExtentDataKey, uint64(i)*4096, "x"))
	}
	recs = append(recs, rec(257, ExtentDataKey, 0, "other"))
	ft := newFakeTree(5, recs...)
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})

	q := NewQuery(5).WithObjectID(Exact[uint64](256)).WithType(Exact(ExtentDataKey)).WithMaxItems(3)
	p := s.Pages(q, make([]byte, BufferSize))
	var all []Record
	var firstOfPage []uint64
	for p.Next(context.Background()) {
		firstOfPage = append(firstOfPage, p.Query().Offset.Min)
		res := p.Results()
		for res.Next() {
			all = append(all, res.Record().Clone())
		}
	}
	ensure(p.Err())

	if len(all) != 10 {
		t.Fatalf("got %d records: %v", len(all), offsets(all))
	}
	for i, r := range all {
		if r.Offset != uint64(i)*4096 {
			t.Errorf("record %d offset = %d", i, r.Offset)
		}
	}
	if p.Pages() != 4 {
		t.Errorf("Pages = %d, expected 4", p.Pages())
	}
	if e := []uint64{0, 2*4096 + 1, 5*4096 + 1, 8*4096 + 1}; len(firstOfPage) != 4 || firstOfPage[1] != e[1] || firstOfPage[3] != e[3] {
		t.Errorf("page lower bounds = %v, expected %v", firstOfPage, e)
	}
	// 4 pages with records, and a final empty one.
	if ft.calls != 5 {
		t.Errorf("calls = %d, expected 5", ft.calls)
	}
	if p.Next(context.Background()) {
		t.Error("Next after the end = true")
	}
}

func TestPager_unreadRecordsAreSkipped(t *testing.T) {
	ft := newFakeTree(5, rec(256, 1, 0, ""), rec(256, 1, 1, ""), rec(256, 1, 2, ""))
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})
	p := s.Pages(NewQuery(5).WithMaxItems(2), make([]byte, BufferSize))
	var pages int
	for p.Next(context.Background()) {
		pages++
	}
	ensure(p.Err())
	if pages != 2 {
		t.Errorf("pages = %d, expected 2", pages)
	}
}

func TestPager_stopsAtLastKey(t *testing.T) {
	ft := newFakeTree(5, rec(256, 1, 0, ""))
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})
	p := s.Pages(NewQuery(5).WithObjectID(Exact[uint64](256)).WithType(Exact[ItemType](1)).WithOffset(Exact[uint64](0)), make([]byte, BufferSize))
	for p.Next(context.Background()) {
	}
	ensure(p.Err())
	if ft.calls != 1 {
		t.Errorf("calls = %d, expected 1", ft.calls)
	}
}

func TestPager_error(t *testing.T) {
	ft := newFakeTree(5)
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})
	p := s.Pages(NewQuery(6), make([]byte, BufferSize))
	if p.Next(context.Background()) {
		t.Fatal("Next = true")
	}
	if p.Err() != syscall.ENOENT {
		t.Errorf("Err = %v, expected ENOENT", p.Err())
	}
}

func TestWalk(t *testing.T) {
	var recs []Record
	for i := range 300 {
		recs = append(recs, rec(256+uint64(i), InodeItemKey, 0, "0123456789abcdef0123456789abcdef"))
	}
	ft := newFakeTree(5, recs...)
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})

	var n int
	err := s.Walk(context.Background(), NewQuery(5), func(r Record) error {
		if r.ObjectID != 256+uint64(n) {
			t.Fatalf("record %d: objectid %d", n, r.ObjectID)
		}
		n++
		return nil
	})
	ensure(err)
	if n != 300 {
		t.Errorf("walked %d records, expected 300", n)
	}
	// 64-byte records, 62 per page.
	if ft.calls != 6 {
		t.Errorf("calls = %d, expected 6", ft.calls)
	}
}

// Keys of middle object ids and of the first and last object ids past the
// offset maximum are all inside the composite key range, so paging must not
// skip them.
func TestWalk_matchesSearch(t *testing.T) {
	ft := newFakeTree(5,
		rec(250, InodeItemKey, 0, "a"),
		rec(300, InodeItemKey, 20, "b"),
		rec(300, InodeItemKey, 21, "c"),
		rec(300, InodeItemKey, 22, "d"),
		rec(301, InodeRefKey, 0, "e"),
		rec(400, InodeItemKey, 5, "f"),
		rec(400, InodeItemKey, 11, "g"),
	)
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})
	q := NewQuery(5).
		WithObjectID(Between[uint64](250, 400)).
		WithType(Exact(InodeItemKey)).
		WithOffset(Between[uint64](0, 10))

	res := must(s.Search(q, make([]byte, BufferSize)))
	e := must(res.Collect())
	if len(e) != 6 {
		t.Fatalf("Search returned %d records: %v", len(e), offsets(e))
	}

	for _, n := range []uint32{1, 2, 3} {
		var a []Record
		err := s.Walk(context.Background(), q.WithMaxItems(n), func(r Record) error {
			a = append(a, r.Clone())
			return nil
		})
		ensure(err)
		if !recsEqual(a, e) {
			t.Errorf("Walk with MaxItems=%d = %v, expected %v", n, a, e)
		}
	}
}

func TestWalk_stops(t *testing.T) {
	ft := newFakeTree(5, rec(256, 1, 0, ""), rec(257, 1, 0, ""))
	s := New(0, Options{Transport: ft, Logger: testLogger(t)})

	stop := errors.New("stop")
	var n int
	err := s.Walk(context.Background(), NewQuery(5), func(Record) error {
		n++
		return stop
	})
	if err != stop || n != 1 {
		t.Errorf("err = %v, n = %d", err, n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Walk(ctx, NewQuery(5), func(Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, expected context.Canceled", err)
	}
}
