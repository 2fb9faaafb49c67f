package conn

import (
	"sync"

	"github.com/gravitational/trace"
	"github.com/kevwan/radixcluster/resp"
	"github.com/kevwan/radixcluster/topology"
)

// Table is a fixed mapping from endpoint to an active connection handle.
// It is populated at cluster-connect time, read-only for the lifetime of
// a ClusterRouter (spec §3 — "the router borrows from it but never
// constructs connections"), and closed exactly once.
//
// The idempotent, once-only drain here is adapted from the teacher's
// pool.Pool.Empty: a sync.Once guards the actual close pass, so a
// double-Close (spec §8's close-idempotence invariant) is a no-op rather
// than a double-free of each connection.
type Table struct {
	byEndpoint map[topology.Endpoint]Connection
	closeOnce  sync.Once
	closeErr   error
}

// NewTable builds a Table over a fixed connection map. The Table takes
// ownership of every Connection in it: closing the Table closes them all.
func NewTable(byEndpoint map[topology.Endpoint]Connection) *Table {
	cp := make(map[topology.Endpoint]Connection, len(byEndpoint))
	for k, v := range byEndpoint {
		cp[k] = v
	}
	return &Table{byEndpoint: cp}
}

// Get returns the connection for endpoint, if the table has one.
func (t *Table) Get(endpoint topology.Endpoint) (Connection, bool) {
	c, ok := t.byEndpoint[endpoint]
	return c, ok
}

// MustGet returns the connection for endpoint, or a "missing connection"
// routing error per spec §7.
func (t *Table) MustGet(endpoint topology.Endpoint) (Connection, error) {
	c, ok := t.Get(endpoint)
	if !ok {
		return nil, trace.NotFound("missing connection to %s", endpoint)
	}
	return c, nil
}

// All returns every connection in the table, keyed by endpoint.
func (t *Table) All() map[topology.Endpoint]Connection {
	out := make(map[topology.Endpoint]Connection, len(t.byEndpoint))
	for k, v := range t.byEndpoint {
		out[k] = v
	}
	return out
}

// PendingQueueFull reports true iff any connection in the table reports
// its pending queue full (spec §4.7.5).
func (t *Table) PendingQueueFull() bool {
	for _, c := range t.byEndpoint {
		if c.PendingQueueFull() {
			return true
		}
	}
	return false
}

// Pause applies Pause to every connection in the table.
func (t *Table) Pause() {
	for _, c := range t.byEndpoint {
		c.Pause()
	}
}

// Resume applies Resume to every connection in the table.
func (t *Table) Resume() {
	for _, c := range t.byEndpoint {
		c.Resume()
	}
}

// SetDemand applies Fetch(n) to every connection in the table.
func (t *Table) SetDemand(n int) {
	for _, c := range t.byEndpoint {
		c.Fetch(n)
	}
}

// SetExceptionHandler applies h to every connection in the table.
func (t *Table) SetExceptionHandler(h ExceptionHandler) {
	for _, c := range t.byEndpoint {
		c.SetExceptionHandler(h)
	}
}

// SetReplyHandler applies h to every connection in the table.
func (t *Table) SetReplyHandler(h ReplyHandler) {
	for _, c := range t.byEndpoint {
		c.SetReplyHandler(h)
	}
}

// SetEndHandler applies h to every connection in the table.
func (t *Table) SetEndHandler(h EndHandler) {
	for _, c := range t.byEndpoint {
		c.SetEndHandler(h)
	}
}

// Close closes every connection exactly once, even across repeated
// calls. Safe to call on a table that was only partially populated by a
// failed bootstrap (spec §5's resource-discipline requirement): every
// connection actually inserted still gets closed.
func (t *Table) Close() error {
	t.closeOnce.Do(func() {
		var firstErr error
		for addr, c := range t.byEndpoint {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = trace.Wrap(err, "closing connection to %s", addr)
			}
		}
		t.closeErr = firstErr
	})
	return t.closeErr
}

// SendSync adapts Connection's callback-based Send into a blocking call,
// the idiomatic Go shape for "await one reply" (design notes §9:
// callbacks become explicit continuations here).
func SendSync(c Connection, req resp.Request) resp.Response {
	replyCh := make(chan resp.Response, 1)
	c.Send(req, func(r resp.Response) {
		replyCh <- r
	})
	return <-replyCh
}

// BatchSync adapts Connection's callback-based Batch into a blocking call.
func BatchSync(c Connection, reqs []resp.Request) []resp.Response {
	replyCh := make(chan []resp.Response, 1)
	c.Batch(reqs, func(rs []resp.Response) {
		replyCh <- rs
	})
	return <-replyCh
}
