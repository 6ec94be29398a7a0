package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/andreyvit/btrfstree"
)

// Capture runs every query against src to the end of its range and records
// the returned items. Queries run concurrently; each page is stored in its own
// transaction. The first failure cancels the remaining queries.
func (s *Snapshot) Capture(ctx context.Context, src *btrfstree.Searcher, queries ...btrfstree.Query) error {
	var total atomic.Uint64
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		g.Go(func() error {
			n, err := s.capture(ctx, src, q)
			total.Add(n)
			if err != nil {
				return fmt.Errorf("snapshot: capture %v: %w", q, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	trees := make([]uint64, 0, len(queries))
	for _, q := range queries {
		trees = append(trees, q.Tree)
	}
	return s.updateInfo(trees, total.Load())
}

func (s *Snapshot) capture(ctx context.Context, src *btrfstree.Searcher, q btrfstree.Query) (uint64, error) {
	var n uint64
	// An empty tree still exists; searches of it must not fail.
	if err := s.PutRecords(q.Tree, nil); err != nil {
		return 0, err
	}
	buf := make([]byte, btrfstree.BufferSize)
	p := src.Pages(q, buf)
	for p.Next(ctx) {
		recs, err := p.Results().Collect()
		if err != nil {
			return n, err
		}
		if err := s.PutRecords(q.Tree, recs); err != nil {
			return n, err
		}
		n += uint64(len(recs))
	}
	if err := p.Err(); err != nil {
		return n, err
	}
	s.logDebug("snapshot: captured", slog.String("query", q.String()), slog.Uint64("items", n), slog.Int("pages", p.Pages()))
	return n, nil
}
