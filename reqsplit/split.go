// Package reqsplit partitions a multi-key request's argument list by slot
// when its keys span more than one shard, preserving the command's
// pre-key prefix and trailing suffix in every resulting sub-request.
package reqsplit

import "github.com/kevwan/radixcluster/resp"

// Split partitions req.Args by slot per spec §4.6:
//
//  1. args[0:start] is the shared prefix, prepended to every sub-request.
//  2. each key at positions start, start+step, ... < end is grouped by
//     its slot, along with the step-1 arguments immediately after it.
//  3. args[end:] is the shared tail, appended to every sub-request.
//
// order is the distinct slots in first-occurrence order (key-argument
// issue order), which the caller should use to decide scatter dispatch
// and, by extension, reducer input order.
func Split(req resp.Request, start, end, step int, slotOf func([]byte) int) (order []int, bySlot map[int]resp.Request) {
	args := req.Args
	prefix := args[:start]
	tail := args[end:]

	bySlot = make(map[int]resp.Request)
	buckets := make(map[int][][]byte)

	for pos := start; pos < end; pos += step {
		slot := slotOf(args[pos])
		upto := pos + step
		if upto > end {
			upto = end
		}
		if _, seen := buckets[slot]; !seen {
			order = append(order, slot)
		}
		buckets[slot] = append(buckets[slot], args[pos:upto]...)
	}

	for _, slot := range order {
		full := make([][]byte, 0, len(prefix)+len(buckets[slot])+len(tail))
		full = append(full, prefix...)
		full = append(full, buckets[slot]...)
		full = append(full, tail...)
		bySlot[slot] = resp.Request{Command: req.Command, Args: full}
	}
	return order, bySlot
}
