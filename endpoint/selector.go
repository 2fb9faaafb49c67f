// Package endpoint picks the specific node that should serve a request,
// given a slot (or "any"), a read/write intent, and a read-preference
// policy.
package endpoint

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/kevwan/radixcluster/topology"
)

// Policy selects how reads are distributed between master and replicas.
type Policy int

const (
	// MasterOnly always routes to the slot's master, even for reads.
	MasterOnly Policy = iota
	// ReplicaOnly routes reads to a replica, falling back to the master
	// when a slot has none (spec §9 open question: preserved for
	// compatibility with the source's behavior).
	ReplicaOnly
	// Share routes reads uniformly across master and replicas alike.
	Share
)

// Selector implements the algorithm in spec §4.5.
type Selector struct {
	slots     *topology.SlotMap
	policy    Policy
	bootstrap topology.Endpoint
	counter   atomic.Uint64
}

// New builds a Selector over slots. bootstrap is the address used when a
// requested slot has no configured endpoint list.
func New(slots *topology.SlotMap, policy Policy, bootstrap topology.Endpoint) *Selector {
	return &Selector{slots: slots, policy: policy, bootstrap: bootstrap}
}

// Bootstrap returns the selector's configured fallback endpoint. Router.Batch
// uses it for a batch with no observed slot when SelectAny finds no
// endpoint.
func (s *Selector) Bootstrap() topology.Endpoint {
	return s.bootstrap
}

// SelectAny handles the "any" slot case: a keyless, non-scattered
// command. It deliberately ignores readOnly and policy — keyless commands
// may land on a replica regardless of policy, per spec §4.5.
func (s *Selector) SelectAny() (topology.Endpoint, bool) {
	return s.slots.RandomEndpoint()
}

// Select picks the endpoint for a specific slot under readOnly intent and
// the configured policy, falling back to the bootstrap endpoint if the
// slot has no configured endpoint list.
func (s *Selector) Select(slot int, readOnly bool) topology.Endpoint {
	list, ok := s.slots.EndpointsForSlot(slot)
	if !ok || len(list) == 0 {
		return s.bootstrap
	}
	return s.SelectFromList(list, readOnly)
}

// SelectFromList applies the master/replica policy to an already-resolved
// EndpointList — used both by Select and by the keyless scatter/gather
// fan-out, which already has each shard's list from topology.SlotMap.Group.
func (s *Selector) SelectFromList(list topology.EndpointList, readOnly bool) topology.Endpoint {
	if readOnly && s.policy != MasterOnly && len(list) >= 2 {
		switch s.policy {
		case ReplicaOnly:
			return list[1+s.pickIndex(len(list)-1)]
		case Share:
			return list[s.pickIndex(len(list))]
		}
	}
	return list[0]
}

// pickIndex returns a value in [0, n) without a shared, lock-guarded
// PRNG: a monotonic call counter is hashed through xxhash, the same
// non-cryptographic hash topology.SlotMap uses for RandomEndpoint.
func (s *Selector) pickIndex(n int) int {
	if n <= 0 {
		return 0
	}
	c := s.counter.Add(1)
	h := xxhash.Sum64(encodeCounter(c))
	return int(h % uint64(n))
}

func encodeCounter(n uint64) []byte {
	return []byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
		byte(n >> 32), byte(n >> 40), byte(n >> 48), byte(n >> 56),
	}
}
