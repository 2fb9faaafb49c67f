// Package cluster implements the dispatch engine that classifies a
// command, routes it to the right cluster shard, handles MOVED/ASK/
// TRYAGAIN/CLUSTERDOWN redirection, and fans out scatter/gather requests
// across shards. It is an almost drop-in successor to the teacher's own
// best-effort cluster.Cluster, rebuilt around an immutable topology
// snapshot and a fixed connection table instead of a self-managing pool.
package cluster

import (
	"log/slog"

	"github.com/gravitational/trace"
	"github.com/kevwan/radixcluster/command"
	"github.com/kevwan/radixcluster/conn"
	"github.com/kevwan/radixcluster/endpoint"
	"github.com/kevwan/radixcluster/metrics"
	"github.com/kevwan/radixcluster/reduce"
	"github.com/kevwan/radixcluster/topology"
)

// Router is the cluster-aware dispatch engine (spec §4.7, component C7).
// It holds no lock of its own: SlotMap and the connection Table are
// read-only for its whole lifetime (spec §5), and the per-connection
// state they front is serialized on that connection's own execution
// context.
type Router struct {
	slots    *topology.SlotMap
	conns    *conn.Table
	selector *endpoint.Selector
	commands *command.Registry
	reducers *reduce.Registry
	retries  int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a Router over an already-populated topology and connection
// table. The cluster-topology bootstrap (CLUSTER SLOTS discovery) is out
// of scope here (spec §1) — callers are expected to have done it already.
func New(opts Opts) (*Router, error) {
	if opts.Slots == nil {
		return nil, trace.BadParameter("cluster: Opts.Slots is required")
	}
	if opts.Connections == nil {
		return nil, trace.BadParameter("cluster: Opts.Connections is required")
	}
	if opts.Bootstrap == "" {
		return nil, trace.BadParameter("cluster: Opts.Bootstrap is required")
	}

	full, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Router{
		slots:    full.Slots,
		conns:    full.Connections,
		selector: endpoint.New(full.Slots, full.ReadPreference, full.Bootstrap),
		commands: full.Commands,
		reducers: full.Reducers,
		retries:  full.RetryBudget,
		logger:   full.Logger,
		metrics:  full.Metrics,
	}, nil
}

// Close closes every connection in the router's table exactly once
// (spec §8's close-idempotence invariant, delegated to conn.Table).
func (r *Router) Close() error {
	return r.conns.Close()
}
