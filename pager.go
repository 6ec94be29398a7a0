package btrfstree

import (
	"context"
)

// Pager enumerates a whole query range by issuing one search per page and
// continuing from the last header of the previous page. It stops after a
// search that returns no records.
//
//	p := s.Pages(q, buf)
//	for p.Next(ctx) {
//		res := p.Results()
//		for res.Next() {
//			...
//		}
//	}
//	if err := p.Err(); err != nil {
//	}
//
// Pages are separate searches, so an enumeration observes whatever changes
// other writers make to the tree between them.
type Pager struct {
	s     *Searcher
	base  Query
	query Query
	buf   []byte
	res   *Results
	pages int
	done  bool
	err   error
}

// Pages returns a Pager for q that searches into buf.
func (s *Searcher) Pages(q Query, buf []byte) *Pager {
	return &Pager{s: s, base: q, query: q, buf: buf}
}

// Next issues the search for the next page. Records of the current page that
// the caller did not read are skipped. ctx is checked between searches.
func (p *Pager) Next(ctx context.Context) bool {
	if p.done {
		return false
	}

	if p.res != nil {
		last, ok, err := p.res.drain()
		p.res = nil
		if err != nil {
			return p.stop(err)
		}
		if !ok {
			return p.stop(nil)
		}
		q, more := p.base.After(last)
		if !more {
			return p.stop(nil)
		}
		p.query = q
	}

	if err := ctx.Err(); err != nil {
		return p.stop(err)
	}

	res, err := p.s.Search(p.query, p.buf)
	if err != nil {
		return p.stop(err)
	}
	if res.Len() == 0 {
		return p.stop(nil)
	}
	p.res = res
	p.pages++
	return true
}

func (p *Pager) stop(err error) bool {
	p.done = true
	p.err = err
	p.res = nil
	return false
}

// Results returns the cursor of the current page.
func (p *Pager) Results() *Results { return p.res }

// Query returns the query the current page was searched with.
func (p *Pager) Query() Query { return p.query }

// Pages returns the number of non-empty pages seen so far.
func (p *Pager) Pages() int { return p.pages }

func (p *Pager) Err() error { return p.err }

// Walk calls fn for every record in the range of q, searching page by page
// into a pooled buffer. Records passed to fn are only valid during the call.
// Walk stops at the first error returned by fn, a search or ctx.
func (s *Searcher) Walk(ctx context.Context, q Query, fn func(rec Record) error) error {
	buf := acquireSearchBuffer()
	defer releaseSearchBuffer(buf)

	p := s.Pages(q, buf[:])
	for p.Next(ctx) {
		res := p.Results()
		for res.Next() {
			if err := fn(res.Record()); err != nil {
				return err
			}
		}
	}
	return p.Err()
}
