// Package topology holds the immutable snapshot of cluster node layout:
// which endpoints serve which hash slots.
package topology

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
	"github.com/kevwan/radixcluster/hashslot"
)

// Endpoint is an opaque node identifier (a host:port URI). Equality is
// byte-exact.
type Endpoint string

// EndpointList is the ordered node list for one shard: index 0 is the
// master, indices >= 1 are replicas.
type EndpointList []Endpoint

// Master returns the first (master) endpoint of the list.
func (l EndpointList) Master() Endpoint {
	return l[0]
}

// SlotMap is an immutable snapshot of cluster topology. A topology change
// produces a new SlotMap rather than mutating one in place (spec §3); all
// read operations require no synchronization.
type SlotMap struct {
	bySlot  [hashslot.NumSlots]EndpointList
	groups  []EndpointList // one entry per distinct master, first-seen slot order
	allEnds map[Endpoint]struct{}
	rend    *rendezvous.Rendezvous
	counter atomic.Uint64
}

// Builder assembles a SlotMap slot by slot.
type Builder struct {
	bySlot [hashslot.NumSlots]EndpointList
}

// NewBuilder returns an empty Builder; every slot starts unassigned.
func NewBuilder() *Builder {
	return &Builder{}
}

// Assign sets the EndpointList for a single slot. list must be non-empty.
func (b *Builder) Assign(slot int, list EndpointList) *Builder {
	if slot < 0 || slot >= hashslot.NumSlots {
		panic("topology: slot out of range")
	}
	if len(list) == 0 {
		panic("topology: endpoint list must be non-empty")
	}
	cp := make(EndpointList, len(list))
	copy(cp, list)
	b.bySlot[slot] = cp
	return b
}

// AssignRange assigns the same EndpointList to every slot in [start, end].
func (b *Builder) AssignRange(start, end int, list EndpointList) *Builder {
	for s := start; s <= end; s++ {
		b.Assign(s, list)
	}
	return b
}

// Build finalizes the SlotMap.
func (b *Builder) Build() *SlotMap {
	sm := &SlotMap{
		bySlot:  b.bySlot,
		allEnds: make(map[Endpoint]struct{}),
	}

	seenMaster := make(map[Endpoint]int) // master -> index into sm.groups
	for slot := 0; slot < hashslot.NumSlots; slot++ {
		list := b.bySlot[slot]
		if list == nil {
			continue
		}
		for _, e := range list {
			sm.allEnds[e] = struct{}{}
		}
		master := list.Master()
		if _, ok := seenMaster[master]; !ok {
			seenMaster[master] = len(sm.groups)
			sm.groups = append(sm.groups, list)
		}
	}

	nodes := make([]string, 0, len(sm.allEnds))
	for e := range sm.allEnds {
		nodes = append(nodes, string(e))
	}
	if len(nodes) > 0 {
		sm.rend = rendezvous.New(nodes, xxhash.Sum64String)
	}
	return sm
}

// EndpointsForSlot returns the EndpointList assigned to slot, or (nil,
// false) if the slot is unassigned.
func (sm *SlotMap) EndpointsForSlot(slot int) (EndpointList, bool) {
	if slot < 0 || slot >= hashslot.NumSlots {
		return nil, false
	}
	list := sm.bySlot[slot]
	return list, list != nil
}

// EndpointsForKey is a thin alias over EndpointsForSlot, kept separate so
// call sites read naturally whether they hold a slot or a key's slot.
func (sm *SlotMap) EndpointsForKey(slot int) (EndpointList, bool) {
	return sm.EndpointsForSlot(slot)
}

// Endpoints returns the set union of every slot's EndpointList.
func (sm *SlotMap) Endpoints() map[Endpoint]struct{} {
	out := make(map[Endpoint]struct{}, len(sm.allEnds))
	for e := range sm.allEnds {
		out[e] = struct{}{}
	}
	return out
}

// Size returns the number of distinct slot groupings (shards) in the map,
// used by the keyless scatter/gather fan-out (spec §4.7.1).
func (sm *SlotMap) Size() int {
	return len(sm.groups)
}

// Group returns the EndpointList for the i-th distinct shard, in
// first-seen slot order. Used by keyless scatter/gather to enumerate
// shards without needing a raw slot number per shard.
func (sm *SlotMap) Group(i int) (EndpointList, bool) {
	if i < 0 || i >= len(sm.groups) {
		return nil, false
	}
	return sm.groups[i], true
}

// RandomEndpoint returns an endpoint sampled (non-cryptographically) over
// the full endpoint set. Calls look up a monotonic counter value on an
// xxhash-keyed rendezvous ring rather than drawing from a shared PRNG, so
// there is no lock contention on the router's keyless-dispatch hot path.
// Each call scores every endpoint, so its cost is linear in the number of
// endpoints, not O(1).
func (sm *SlotMap) RandomEndpoint() (Endpoint, bool) {
	if sm.rend == nil {
		return "", false
	}
	n := sm.counter.Add(1)
	return Endpoint(sm.rend.Lookup(uint64ToString(n))), true
}

func uint64ToString(n uint64) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hex[n&0xF]
		n >>= 4
	}
	return string(buf)
}
