package lst

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"mailtrace/internal/graph"
)

// ExtractAll runs Extract for every root over the same graph, at most workers
// at a time (unbounded when workers <= 0). Results are in root order. g must
// not be modified while ExtractAll runs. Cancelling ctx stops roots that have
// not started; a running extraction is never interrupted.
func ExtractAll(ctx context.Context, g *graph.Graph, roots []string, opts Options, workers int) ([]*Result, error) {
	results := make([]*Result, len(roots))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, root := range roots {
		i, root := i, root
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Extract(g, root, opts)
			if err != nil {
				return fmt.Errorf("extracting from %s: %w", root, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
