package cluster

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kevwan/radixcluster/resp"
)

// scatterGather implements spec §4.7.3: dispatch one sub-request per
// scatterItem in parallel, each with its own full retry budget, then
// reduce the per-shard replies into a single Response with p.reducer.
// The combinator is "join-N, first-failure-wins": the first sub-request
// to fail cancels the group and its error is returned.
func (r *Router) scatterGather(ctx context.Context, p plan) (resp.Response, error) {
	r.metrics.ScatterWidth(len(p.items))

	g, gctx := errgroup.WithContext(ctx)
	replies := make([]resp.Response, len(p.items))

	for i, item := range p.items {
		i, item := i, item
		g.Go(func() error {
			endpoint := r.selector.SelectFromList(item.list, p.readOnly)
			reply, err := r.dispatch(gctx, endpoint, r.retries, item.req)
			if err != nil {
				return err
			}
			if reply.IsError() {
				return reply.AsError()
			}
			replies[i] = reply
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return resp.Response{}, err
	}
	return p.reducer(replies), nil
}
