package addresser

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/sourcegraph/conc/pool"
)

// AssignBatch assigns addresses to many buildings concurrently. The result keeps
// the order of points. The first failure cancels the remaining work.
func (a *Assembler) AssignBatch(ctx context.Context, points []orb.Point, regionCode string) (geomodel.AddressList, error) {
	ctx, span := tracer.Start(ctx, "AssignBatch")
	defer span.End()

	out := make(geomodel.AddressList, len(points))

	p := pool.New().
		WithMaxGoroutines(max(1, a.batchWorkers)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, point := range points {
		p.Go(func(ctx context.Context) error {
			addr, err := a.Assign(ctx, point, regionCode)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			out[i] = addr
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
