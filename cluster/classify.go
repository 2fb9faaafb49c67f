package cluster

import (
	"github.com/gravitational/trace"
	"github.com/kevwan/radixcluster/command"
	"github.com/kevwan/radixcluster/hashslot"
	"github.com/kevwan/radixcluster/reduce"
	"github.com/kevwan/radixcluster/resp"
	"github.com/kevwan/radixcluster/topology"
	"github.com/kevwan/radixcluster/reqsplit"
)

type planKind int

const (
	planAny planKind = iota
	planSingleSlot
	planScatter
)

// scatterItem is one sub-request of a scatter/gather dispatch, already
// paired with the shard's resolved endpoint list.
type scatterItem struct {
	list topology.EndpointList
	req  resp.Request
}

type plan struct {
	kind     planKind
	slot     int // valid when kind == planSingleSlot
	req      resp.Request
	items    []scatterItem // valid when kind == planScatter
	reducer  reduce.Func
	readOnly bool
}

// classify implements spec §4.7.1: it decides whether req is rejected
// outright, sent single-shot to a specific slot or "any" endpoint, or
// fanned out as a scatter/gather dispatch.
func (r *Router) classify(req resp.Request) (plan, error) {
	if reason, unsupported := r.commands.UnsupportedReason(req.Command); unsupported {
		return plan{}, trace.BadParameter("%s", reason)
	}

	desc, ok := r.commands.Lookup(req.Command)
	if !ok {
		// No metadata registered: the conservative default is keyless,
		// not read-only, not movable, with no reducer — a single-shot
		// dispatch to a random endpoint.
		desc = command.Descriptor{Name: req.Command, Keyless: true}
	}

	if desc.Movable {
		return plan{}, trace.BadParameter("movable-keys commands are not supported in cluster mode")
	}

	if desc.Keyless {
		return r.classifyKeyless(req, desc)
	}

	step := desc.KeyStep
	if step <= 0 {
		step = 1
	}
	start := desc.FirstKey - 1
	end := resolveEnd(desc.LastKey, len(req.Args))

	if desc.MultiKey {
		return r.classifyMultiKey(req, desc, start, end, step)
	}
	return r.classifySingleKey(req, desc, start)
}

// resolveEnd converts a CommandDescriptor's LastKey into an exclusive
// upper bound over req.Args (spec §4.7.1 step 4). LastKey and FirstKey
// share the same basis — both equal (args-index + 1) — so the positive
// case needs no further adjustment: inclusiveArgsIndex = lastKey-1, and
// the exclusive bound is inclusiveArgsIndex+1 = lastKey. This mirrors the
// negative-case formula, which already folds the same "+1" into
// `len(args) + (lastKey + 1)`; a literal "subtract 1" on the positive
// branch would make multi-key commands whose last key differs from the
// first (RENAME, COPY) silently drop their final key. See DESIGN.md.
func resolveEnd(lastKey, argsLen int) int {
	if lastKey > 0 {
		return lastKey
	}
	return argsLen + (lastKey + 1)
}

func (r *Router) classifyKeyless(req resp.Request, desc command.Descriptor) (plan, error) {
	fn, hasReducer := r.reducers.Lookup(req.Command)
	if !hasReducer {
		return plan{kind: planAny, req: req, readOnly: desc.ReadOnly}, nil
	}

	n := r.slots.Size()
	items := make([]scatterItem, 0, n)
	for i := 0; i < n; i++ {
		list, ok := r.slots.Group(i)
		if !ok {
			continue
		}
		items = append(items, scatterItem{list: list, req: req})
	}
	return plan{kind: planScatter, items: items, reducer: fn, readOnly: desc.ReadOnly}, nil
}

func (r *Router) classifyMultiKey(req resp.Request, desc command.Descriptor, start, end, step int) (plan, error) {
	if start < 0 || end > len(req.Args) || start >= end {
		return plan{}, trace.BadParameter("%s: key positions out of range for %d argument(s)", req.Command, len(req.Args))
	}

	seen := map[int]bool{}
	var order []int
	for pos := start; pos < end; pos += step {
		slot := hashslot.Of(req.Args[pos])
		if !seen[slot] {
			seen[slot] = true
			order = append(order, slot)
		}
	}
	if len(order) == 0 {
		return plan{}, trace.BadParameter("%s: no keys found", req.Command)
	}
	if len(order) == 1 {
		return plan{kind: planSingleSlot, slot: order[0], req: req, readOnly: desc.ReadOnly}, nil
	}

	fn, ok := r.reducers.Lookup(req.Command)
	if !ok {
		return plan{}, trace.BadParameter("no reducer available for %s", req.Command)
	}

	splitOrder, bySlot := reqsplit.Split(req, start, end, step, hashslot.Of)
	items := make([]scatterItem, 0, len(splitOrder))
	for _, slot := range splitOrder {
		list, ok := r.slots.EndpointsForSlot(slot)
		if !ok {
			list = topology.EndpointList{r.selector.Select(slot, desc.ReadOnly)}
		}
		items = append(items, scatterItem{list: list, req: bySlot[slot]})
	}
	return plan{kind: planScatter, items: items, reducer: fn, readOnly: desc.ReadOnly}, nil
}

func (r *Router) classifySingleKey(req resp.Request, desc command.Descriptor, start int) (plan, error) {
	if start < 0 || start >= len(req.Args) {
		return plan{}, trace.BadParameter("%s: no key argument at position %d", req.Command, start)
	}
	slot := hashslot.Of(req.Args[start])
	return plan{kind: planSingleSlot, slot: slot, req: req, readOnly: desc.ReadOnly}, nil
}
