package conn

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/kevwan/radixcluster/resp"
	"github.com/kevwan/radixcluster/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	closes    atomic.Int32
	closeErr  error
	queueFull bool
	lastSent  resp.Request
}

func (s *stubConn) Send(req resp.Request, onReply func(resp.Response)) {
	s.lastSent = req
	onReply(resp.Simple("OK"))
}
func (s *stubConn) Batch(reqs []resp.Request, onReplies func([]resp.Response)) {
	out := make([]resp.Response, len(reqs))
	for i := range reqs {
		out[i] = resp.Simple("OK")
	}
	onReplies(out)
}
func (s *stubConn) Pause()                                {}
func (s *stubConn) Resume()                               {}
func (s *stubConn) Fetch(int)                             {}
func (s *stubConn) SetExceptionHandler(ExceptionHandler)  {}
func (s *stubConn) SetEndHandler(EndHandler)              {}
func (s *stubConn) SetReplyHandler(ReplyHandler)          {}
func (s *stubConn) PendingQueueFull() bool                { return s.queueFull }
func (s *stubConn) Close() error {
	s.closes.Add(1)
	return s.closeErr
}

func TestTableGetAndMustGet(t *testing.T) {
	a := &stubConn{}
	tbl := NewTable(map[topology.Endpoint]Connection{"redis://a:6379": a})

	got, ok := tbl.Get("redis://a:6379")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, err := tbl.MustGet("redis://missing:6379")
	assert.Error(t, err)
}

func TestTableCloseIsIdempotent(t *testing.T) {
	a := &stubConn{}
	b := &stubConn{}
	tbl := NewTable(map[topology.Endpoint]Connection{
		"redis://a:6379": a,
		"redis://b:6379": b,
	})

	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())

	assert.Equal(t, int32(1), a.closes.Load())
	assert.Equal(t, int32(1), b.closes.Load())
}

func TestTableCloseSurfacesFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &stubConn{closeErr: boom}
	tbl := NewTable(map[topology.Endpoint]Connection{"redis://a:6379": a})

	err := tbl.Close()
	assert.Error(t, err)
}

func TestTablePendingQueueFullIsAnyOf(t *testing.T) {
	a := &stubConn{queueFull: false}
	b := &stubConn{queueFull: true}
	tbl := NewTable(map[topology.Endpoint]Connection{
		"redis://a:6379": a,
		"redis://b:6379": b,
	})
	assert.True(t, tbl.PendingQueueFull())
}

func TestSendSyncReturnsReply(t *testing.T) {
	a := &stubConn{}
	got := SendSync(a, resp.New("GET", []byte("k")))
	assert.Equal(t, "OK", got.Str)
	assert.Equal(t, "GET", a.lastSent.Command)
}

func TestBatchSyncReturnsOneReplyPerRequest(t *testing.T) {
	a := &stubConn{}
	got := BatchSync(a, []resp.Request{resp.New("SET", []byte("a")), resp.New("SET", []byte("b"))})
	require.Len(t, got, 2)
}
