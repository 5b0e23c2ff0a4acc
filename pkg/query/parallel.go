package query

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
)

// CollectParallel runs the traversal on up to workers goroutines. The
// frontier is first advanced on the calling goroutine until it can be split
// workers ways, then each part is drained independently. The result holds
// the same set of paths as Collect, in no particular order.
func (e *Enumerator) CollectParallel(ctx context.Context, workers int) ([]graphpath.ResolvedPath, error) {
	return e.CollectParallelN(ctx, workers, 0)
}

// CollectParallelN is CollectParallel stopping once limit paths have been
// collected. A limit of 0 or less collects everything. Which paths make
// the cut is not specified; workers stop pulling as soon as the limit is
// reached, so at most workers-1 extra paths are drawn from the traversal.
func (e *Enumerator) CollectParallelN(ctx context.Context, workers, limit int) ([]graphpath.ResolvedPath, error) {
	if workers < 1 {
		workers = 1
	}
	var taken atomic.Int64
	var done atomic.Bool
	// claim reserves a result slot and reports whether the path may be kept
	claim := func() bool {
		if limit <= 0 {
			return true
		}
		n := taken.Add(1)
		if n >= int64(limit) {
			done.Store(true)
		}
		return n <= int64(limit)
	}

	root := e.Iterator()
	var results []graphpath.ResolvedPath
	for !done.Load() && root.Pending() > 0 && root.Pending() < workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := root.Next()
		if !ok {
			break
		}
		if claim() {
			results = append(results, path)
		}
	}
	if done.Load() {
		return results, nil
	}

	parts := splitInto(root, workers)
	e.logger.Debug("Collecting %d seeds on %d iterators", len(e.seeds), len(parts))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for _, part := range parts {
		g.Go(func() error {
			var local []graphpath.ResolvedPath
			for !done.Load() {
				if err := gCtx.Err(); err != nil {
					return err
				}
				path, ok := part.Next()
				if !ok {
					break
				}
				if claim() {
					local = append(local, path)
				}
			}
			mu.Lock()
			results = append(results, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// splitInto splits it into at most n iterators by repeatedly halving the
// iterator with the largest frontier
func splitInto(it *PathIterator, n int) []*PathIterator {
	parts := []*PathIterator{it}
	for len(parts) < n {
		largest := 0
		for i, part := range parts {
			if part.Pending() > parts[largest].Pending() {
				largest = i
			}
		}
		other := parts[largest].Split()
		if other == nil {
			break
		}
		parts = append(parts, other)
	}
	return parts
}
