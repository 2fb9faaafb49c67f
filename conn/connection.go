// Package conn defines the contract the cluster router requires of the
// single-node connection layer (out of scope for this module: framing,
// pipelining, and socket lifecycle live below this interface) and the
// fixed table of long-lived connections the router dispatches through.
package conn

import "github.com/kevwan/radixcluster/resp"

// ReplyHandler receives every reply delivered on a connection, in the
// order sends were issued (the connection is a pipelined FIFO, per
// spec §5).
type ReplyHandler func(resp.Response)

// ExceptionHandler receives transport-level failures.
type ExceptionHandler func(error)

// EndHandler is invoked once when the connection terminates.
type EndHandler func()

// Connection is the upstream contract described in spec §6. It is a
// single-threaded, cooperative actor: all of Send, Batch, and the stream
// controls below are expected to be called from — and to invoke their
// callbacks on — that connection's own execution context, never
// concurrently with each other for the same Connection.
type Connection interface {
	// Send enqueues one command and delivers exactly one reply to
	// onReply, preserving FIFO order with other sends on this
	// connection.
	Send(req resp.Request, onReply func(resp.Response))

	// Batch enqueues len(reqs) commands atomically from the caller's
	// viewpoint and delivers len(reqs) replies, in order, to onReplies.
	Batch(reqs []resp.Request, onReplies func([]resp.Response))

	Pause()
	Resume()
	Fetch(n int)

	SetExceptionHandler(ExceptionHandler)
	SetEndHandler(EndHandler)
	SetReplyHandler(ReplyHandler)

	PendingQueueFull() bool
	Close() error
}
