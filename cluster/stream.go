package cluster

import "github.com/kevwan/radixcluster/conn"

// PauseReads applies Pause to every connection in the table (spec §4.7.5).
func (r *Router) PauseReads() {
	r.conns.Pause()
}

// ResumeReads applies Resume to every connection in the table.
func (r *Router) ResumeReads() {
	r.conns.Resume()
}

// SetDemand applies Fetch(n) to every connection in the table.
func (r *Router) SetDemand(n int) {
	r.conns.SetDemand(n)
}

// SetExceptionHandler applies h to every connection in the table.
func (r *Router) SetExceptionHandler(h conn.ExceptionHandler) {
	r.conns.SetExceptionHandler(h)
}

// SetReplyHandler applies h to every connection in the table.
func (r *Router) SetReplyHandler(h conn.ReplyHandler) {
	r.conns.SetReplyHandler(h)
}

// SetEndHandler applies h to every connection in the table.
func (r *Router) SetEndHandler(h conn.EndHandler) {
	r.conns.SetEndHandler(h)
}

// PendingQueueFull reports true iff any connection in the table reports
// its pending queue full.
func (r *Router) PendingQueueFull() bool {
	return r.conns.PendingQueueFull()
}
