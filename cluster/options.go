package cluster

import (
	"log/slog"

	"github.com/kevwan/radixcluster/command"
	"github.com/kevwan/radixcluster/conn"
	"github.com/kevwan/radixcluster/endpoint"
	"github.com/kevwan/radixcluster/metrics"
	"github.com/kevwan/radixcluster/reduce"
	"github.com/kevwan/radixcluster/topology"
)

// DefaultRetryBudget is the initial per-dispatch-chain retry budget from
// spec §4.7.2.
const DefaultRetryBudget = 16

// Opts configures a Router, following the teacher's own plain-struct
// Opts idiom (kevwan-radix.v2's cluster.Opts) rather than a config-file
// loader: the public configuration surface is out of scope for this
// core (spec §1), owned by the caller.
type Opts struct {
	// Slots is the cluster topology snapshot. Required.
	Slots *topology.SlotMap

	// Connections is the fixed endpoint -> connection table. Required.
	// The Router borrows from it but never constructs connections.
	Connections *conn.Table

	// Bootstrap is the fallback endpoint used when a slot has no
	// configured endpoint list. Required.
	Bootstrap topology.Endpoint

	// ReadPreference controls master/replica selection for read-only
	// commands. Defaults to MasterOnly.
	ReadPreference endpoint.Policy

	// Commands is the command descriptor registry. Defaults to
	// command.Default().
	Commands *command.Registry

	// Reducers is the scatter/gather reducer registry. Defaults to
	// reduce.Default().
	Reducers *reduce.Registry

	// RetryBudget is the initial per-dispatch-chain retry budget.
	// Defaults to DefaultRetryBudget.
	RetryBudget int

	// Logger receives one Debug record per ASK, TRYAGAIN or CLUSTERDOWN
	// redirection (MOVED is not logged) and one Warn record per exhausted
	// retry budget. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional Prometheus instrumentation. A nil value
	// disables it.
	Metrics *metrics.Metrics
}

func (o *Opts) withDefaults() (*Opts, error) {
	out := *o
	if out.Commands == nil {
		reg, err := command.Default()
		if err != nil {
			return nil, err
		}
		out.Commands = reg
	}
	if out.Reducers == nil {
		out.Reducers = reduce.Default()
	}
	if out.RetryBudget == 0 {
		out.RetryBudget = DefaultRetryBudget
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out, nil
}
