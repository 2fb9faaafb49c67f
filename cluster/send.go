package cluster

import (
	"context"

	"github.com/gravitational/trace"
	"github.com/kevwan/radixcluster/resp"
)

// Send is the router's downstream contract for a single command (spec
// §4.7): classify it, resolve an endpoint (or fan out), and dispatch
// through the MOVED/ASK/TRYAGAIN/CLUSTERDOWN machinery.
func (r *Router) Send(ctx context.Context, req resp.Request) (resp.Response, error) {
	p, err := r.classify(req)
	if err != nil {
		return resp.Response{}, err
	}

	switch p.kind {
	case planScatter:
		return r.scatterGather(ctx, p)

	case planAny:
		ep, ok := r.selector.SelectAny()
		if !ok {
			return resp.Response{}, trace.BadParameter("no endpoints available to dispatch %s", req.Command)
		}
		return r.dispatch(ctx, ep, r.retries, p.req)

	default: // planSingleSlot
		ep := r.selector.Select(p.slot, p.readOnly)
		return r.dispatch(ctx, ep, r.retries, p.req)
	}
}

// Batch is the router's downstream contract for a pipelined batch (spec
// §4.7.4): every request must route to the same endpoint.
func (r *Router) Batch(ctx context.Context, reqs []resp.Request) ([]resp.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	bp, err := r.planBatch(reqs)
	if err != nil {
		return nil, err
	}

	var endpoint = r.selector.Bootstrap()
	if bp.haveSlot {
		endpoint = r.selector.Select(bp.slot, bp.readOnly)
	} else if ep, ok := r.selector.SelectAny(); ok {
		endpoint = ep
	}

	return r.batchDispatch(ctx, endpoint, r.retries, reqs)
}
