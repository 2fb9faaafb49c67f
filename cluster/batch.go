package cluster

import (
	"context"
	"time"

	"github.com/gravitational/trace"
	"github.com/kevwan/radixcluster/conn"
	"github.com/kevwan/radixcluster/hashslot"
	"github.com/kevwan/radixcluster/resp"
	"github.com/kevwan/radixcluster/topology"
)

// batchPlan is the resolved routing decision for a whole pipelined batch
// (spec §4.7.4): one endpoint, shared across every request in the batch.
type batchPlan struct {
	slot     int
	haveSlot bool
	readOnly bool
}

// planBatch scans reqs for a single common slot. Keyless requests are
// skipped when computing the slot; movable and unsupported commands are
// rejected outright; any request whose own key set spans multiple slots,
// or whose slot differs from the batch's first observed slot, fails the
// whole batch.
func (r *Router) planBatch(reqs []resp.Request) (batchPlan, error) {
	var bp batchPlan

	for _, req := range reqs {
		if reason, unsupported := r.commands.UnsupportedReason(req.Command); unsupported {
			return batchPlan{}, trace.BadParameter("%s", reason)
		}
		desc, ok := r.commands.Lookup(req.Command)
		if !ok {
			continue
		}
		if desc.Movable {
			return batchPlan{}, trace.BadParameter("movable-keys commands are not supported in cluster mode")
		}
		bp.readOnly = bp.readOnly || desc.ReadOnly
		if desc.Keyless {
			continue
		}

		step := desc.KeyStep
		if step <= 0 {
			step = 1
		}
		start := desc.FirstKey - 1
		end := resolveEnd(desc.LastKey, len(req.Args))
		if start < 0 || end > len(req.Args) || start >= end {
			return batchPlan{}, trace.BadParameter("%s: key positions out of range for %d argument(s)", req.Command, len(req.Args))
		}

		slot := -1
		for pos := start; pos < end; pos += step {
			s := hashslot.Of(req.Args[pos])
			if slot == -1 {
				slot = s
			} else if s != slot {
				return batchPlan{}, trace.BadParameter("%s: cross-slot batching is unsupported", req.Command)
			}
		}

		if !bp.haveSlot {
			bp.slot, bp.haveSlot = slot, true
		} else if slot != bp.slot {
			return batchPlan{}, trace.BadParameter("%s: cross-slot batching is unsupported", req.Command)
		}
	}

	return bp, nil
}

// batchDispatch implements spec §4.7.4: issue reqs as a single pipelined
// batch on endpoint, and apply the same MOVED/ASK/TRYAGAIN/CLUSTERDOWN
// machinery as single-shot dispatch to the batch as a whole, keyed off
// the first error reply observed.
func (r *Router) batchDispatch(ctx context.Context, endpoint topology.Endpoint, retries int, reqs []resp.Request) ([]resp.Response, error) {
	c, err := r.conns.MustGet(endpoint)
	if err != nil {
		return nil, err
	}

	replies := conn.BatchSync(c, reqs)
	first := firstError(replies)
	if first == nil || retries <= 0 {
		return replies, nil
	}

	switch {
	case resp.ErrorPrefix(first.ErrText, "MOVED"):
		r.metrics.Redirection("moved")
		return replies, nil

	case resp.ErrorPrefix(first.ErrText, "ASK"):
		return r.batchDispatchAsk(ctx, c, endpoint, retries, reqs, *first)

	case resp.ErrorPrefix(first.ErrText, "TRYAGAIN"):
		r.metrics.Redirection("tryagain")
		return r.batchDispatchRetry(ctx, endpoint, retries, reqs, replies, "TRYAGAIN")

	case resp.ErrorPrefix(first.ErrText, "CLUSTERDOWN"):
		r.metrics.Redirection("clusterdown")
		return r.batchDispatchRetry(ctx, endpoint, retries, reqs, replies, "CLUSTERDOWN")

	default:
		return replies, nil
	}
}

func (r *Router) batchDispatchAsk(ctx context.Context, c conn.Connection, from topology.Endpoint, retries int, reqs []resp.Request, original resp.Response) ([]resp.Response, error) {
	r.metrics.Redirection("ask")

	hostport, ok := resp.Token(original.ErrText, 2)
	if !ok {
		return []resp.Response{original}, nil
	}

	asking := conn.SendSync(c, resp.Request{Command: "ASKING"})
	if asking.IsError() {
		return []resp.Response{asking}, nil
	}

	target := topology.Endpoint("redis://" + hostport)
	r.logger.Debug("cluster: redirecting batch after ASK",
		"from", from, "to", target, "retries_left", retries-1)
	return r.batchDispatch(ctx, target, retries-1, reqs)
}

func (r *Router) batchDispatchRetry(ctx context.Context, endpoint topology.Endpoint, retries int, reqs []resp.Request, original []resp.Response, kind string) ([]resp.Response, error) {
	wait := backoff(retries)
	r.logger.Debug("cluster: scheduling batch retry",
		"kind", kind, "endpoint", endpoint, "retries_left", retries-1, "backoff", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return original, ctx.Err()
	case <-timer.C:
	}

	replies, err := r.batchDispatch(ctx, endpoint, retries-1, reqs)
	if err != nil {
		return replies, err
	}
	if first := firstError(replies); first != nil && retries-1 <= 0 {
		r.metrics.RetryBudgetExhausted()
		r.logger.Warn("cluster: batch retry budget exhausted", "endpoint", endpoint, "kind", kind)
	}
	return replies, nil
}

func firstError(replies []resp.Response) *resp.Response {
	for i := range replies {
		if replies[i].IsError() {
			return &replies[i]
		}
	}
	return nil
}
