package btrfstree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

type Options struct {
	// Transport performs the control calls. Defaults to Ioctl.
	Transport Transport
	Logger    *slog.Logger
	Verbose   bool
}

// Searcher issues tree searches against one open file or directory of a
// mounted filesystem. It is safe for concurrent use as long as every
// goroutine passes its own buffer.
type Searcher struct {
	fd        uintptr
	file      *os.File
	transport Transport
	logger    *slog.Logger
	verbose   bool

	searches atomic.Uint64
	failures atomic.Uint64
	items    atomic.Uint64

	bufferBytes atomic.Uint64
}

// Open opens a path on a mounted filesystem for searching. Searching requires
// CAP_SYS_ADMIN.
func Open(path string, opt Options) (*Searcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("btrfstree: %w", err)
	}
	s := New(f.Fd(), opt)
	s.file = f
	return s, nil
}

// New returns a Searcher over an already open file descriptor, which stays
// owned by the caller.
func New(fd uintptr, opt Options) *Searcher {
	if opt.Transport == nil {
		opt.Transport = Ioctl
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Searcher{
		fd:        fd,
		transport: opt.Transport,
		logger:    opt.Logger,
		verbose:   opt.Verbose,
	}
}

// Close closes the file opened by Open.
func (s *Searcher) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Search performs one bounded tree search and returns a cursor over the
// response. buf must have at least BufferSize bytes and must not be used by
// anything else until the caller is done with the results.
//
// A single search returns at most q.MaxItems records and only as many as fit
// into the buffer; see Query.After for continuing past them. Transport errors
// are returned unchanged.
func (s *Searcher) Search(q Query, buf []byte) (*Results, error) {
	if len(buf) < BufferSize {
		return nil, ErrBufferTooSmall
	}
	err := Encode(q, buf)
	if err != nil {
		return nil, err
	}
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "btrfstree: searching", slog.String("query", q.String()), hexAttr("key", buf[:SearchKeySize]))
	}

	s.searches.Add(1)
	err = s.transport.ControlCall(s.fd, IocTreeSearch, buf)
	if err != nil {
		s.failures.Add(1)
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "btrfstree: search failed", slog.String("query", q.String()), slog.Any("err", err))
		return nil, err
	}

	res, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	s.items.Add(uint64(res.Len()))
	s.bufferBytes.Add(uint64(len(buf)))
	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "btrfstree: search", slog.String("query", q.String()), slog.Int("items", res.Len()))
	}
	return res, nil
}

// Stats counts the searches a Searcher performed.
type Stats struct {
	Searches uint64
	Failures uint64
	Items    uint64

	// BufferBytes is the total size of the buffers passed to successful
	// searches, not the amount of item data they returned.
	BufferBytes uint64
}

func (s *Searcher) Stats() Stats {
	return Stats{
		Searches:    s.searches.Load(),
		Failures:    s.failures.Load(),
		Items:       s.items.Load(),
		BufferBytes: s.bufferBytes.Load(),
	}
}
