package endpoint

import (
	"testing"

	"github.com/kevwan/radixcluster/topology"
	"github.com/stretchr/testify/assert"
)

func twoNodeMap() *topology.SlotMap {
	return topology.NewBuilder().
		AssignRange(0, 16383, topology.EndpointList{"redis://master:6379", "redis://replica:6379"}).
		Build()
}

func TestMasterOnlyAlwaysReturnsMaster(t *testing.T) {
	sel := New(twoNodeMap(), MasterOnly, "redis://bootstrap:6379")
	for i := 0; i < 20; i++ {
		got := sel.Select(100, true)
		assert.Equal(t, topology.Endpoint("redis://master:6379"), got)
	}
}

func TestReplicaOnlyPicksReplica(t *testing.T) {
	sel := New(twoNodeMap(), ReplicaOnly, "redis://bootstrap:6379")
	got := sel.Select(100, true)
	assert.Equal(t, topology.Endpoint("redis://replica:6379"), got)
}

func TestReplicaOnlyFallsBackToMasterWhenNoneExist(t *testing.T) {
	sm := topology.NewBuilder().
		AssignRange(0, 16383, topology.EndpointList{"redis://solo:6379"}).
		Build()
	sel := New(sm, ReplicaOnly, "redis://bootstrap:6379")
	got := sel.Select(100, true)
	assert.Equal(t, topology.Endpoint("redis://solo:6379"), got)
}

func TestShareDistributesAcrossBoth(t *testing.T) {
	sel := New(twoNodeMap(), Share, "redis://bootstrap:6379")
	seen := map[topology.Endpoint]bool{}
	for i := 0; i < 64; i++ {
		seen[sel.Select(100, true)] = true
	}
	assert.True(t, seen["redis://master:6379"] && seen["redis://replica:6379"])
}

func TestWriteAlwaysGoesToMaster(t *testing.T) {
	sel := New(twoNodeMap(), Share, "redis://bootstrap:6379")
	got := sel.Select(100, false)
	assert.Equal(t, topology.Endpoint("redis://master:6379"), got)
}

func TestMissingSlotFallsBackToBootstrap(t *testing.T) {
	sm := topology.NewBuilder().Build() // no slots assigned
	sel := New(sm, MasterOnly, "redis://bootstrap:6379")
	got := sel.Select(42, false)
	assert.Equal(t, topology.Endpoint("redis://bootstrap:6379"), got)
}

func TestSelectAnyIgnoresPolicy(t *testing.T) {
	sm := twoNodeMap()
	sel := New(sm, MasterOnly, "redis://bootstrap:6379")
	seen := map[topology.Endpoint]bool{}
	for i := 0; i < 64; i++ {
		e, ok := sel.SelectAny()
		assert.True(t, ok)
		assert.NotEmpty(t, e)
		seen[e] = true
	}
	assert.True(t, seen["redis://replica:6379"], "SelectAny may return a replica even under MasterOnly")
}
