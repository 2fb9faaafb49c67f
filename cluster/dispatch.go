package cluster

import (
	"context"
	"math"
	"time"

	"github.com/kevwan/radixcluster/conn"
	"github.com/kevwan/radixcluster/resp"
	"github.com/kevwan/radixcluster/topology"
)

// dispatch implements spec §4.7.2: issue req on endpoint, classify the
// reply, and recurse on MOVED/ASK/TRYAGAIN/CLUSTERDOWN per the retry
// budget. retries is strictly per dispatch chain: it is never reset
// across the ASKING-then-retry sequence that recovers an ASK.
func (r *Router) dispatch(ctx context.Context, endpoint topology.Endpoint, retries int, req resp.Request) (resp.Response, error) {
	c, err := r.conns.MustGet(endpoint)
	if err != nil {
		return resp.Response{}, err
	}

	reply := conn.SendSync(c, req)
	if !reply.IsError() || retries <= 0 {
		return reply, nil
	}

	switch {
	case resp.ErrorPrefix(reply.ErrText, "MOVED"):
		// The router does not reconnect; the caller rebuilds.
		r.metrics.Redirection("moved")
		return reply, nil

	case resp.ErrorPrefix(reply.ErrText, "ASK"):
		return r.dispatchAsk(ctx, c, endpoint, retries, req, reply)

	case resp.ErrorPrefix(reply.ErrText, "TRYAGAIN"):
		r.metrics.Redirection("tryagain")
		return r.dispatchRetry(ctx, endpoint, retries, req, reply, "TRYAGAIN")

	case resp.ErrorPrefix(reply.ErrText, "CLUSTERDOWN"):
		r.metrics.Redirection("clusterdown")
		return r.dispatchRetry(ctx, endpoint, retries, req, reply, "CLUSTERDOWN")

	default:
		return reply, nil
	}
}

// dispatchAsk recovers an ASK redirection: issue ASKING on the current
// connection, then recursively dispatch the original command to the
// target endpoint with retries-1.
func (r *Router) dispatchAsk(ctx context.Context, c conn.Connection, from topology.Endpoint, retries int, req resp.Request, original resp.Response) (resp.Response, error) {
	r.metrics.Redirection("ask")

	hostport, ok := resp.Token(original.ErrText, 2)
	if !ok {
		return original, nil
	}

	asking := conn.SendSync(c, resp.Request{Command: "ASKING"})
	if asking.IsError() {
		return asking, nil
	}

	target := topology.Endpoint("redis://" + hostport)
	r.logger.Debug("cluster: redirecting after ASK",
		"from", from, "to", target, "retries_left", retries-1)
	return r.dispatch(ctx, target, retries-1, req)
}

// dispatchRetry schedules a TRYAGAIN/CLUSTERDOWN retry after the backoff
// window, or surfaces the original error once the budget or the context
// is exhausted.
func (r *Router) dispatchRetry(ctx context.Context, endpoint topology.Endpoint, retries int, req resp.Request, original resp.Response, kind string) (resp.Response, error) {
	wait := backoff(retries)
	r.logger.Debug("cluster: scheduling retry",
		"kind", kind, "endpoint", endpoint, "retries_left", retries-1, "backoff", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return original, ctx.Err()
	case <-timer.C:
	}

	reply, err := r.dispatch(ctx, endpoint, retries-1, req)
	if err != nil {
		return reply, err
	}
	if reply.IsError() && retries-1 <= 0 {
		r.metrics.RetryBudgetExhausted()
		r.logger.Warn("cluster: retry budget exhausted", "endpoint", endpoint, "kind", kind)
	}
	return reply, nil
}

// backoff implements spec §4.7.2/§8: backoff = 2^(16 - max(retries, 9)) *
// 10 ms, clamped to 1280ms for any retries <= 9.
func backoff(retries int) time.Duration {
	exp := 16 - int(math.Max(float64(retries), 9))
	ms := math.Pow(2, float64(exp)) * 10
	return time.Duration(ms) * time.Millisecond
}
