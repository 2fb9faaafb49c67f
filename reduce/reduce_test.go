package reduce

import (
	"testing"

	"github.com/kevwan/radixcluster/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelSumsIntegers(t *testing.T) {
	reg := Default()
	fn, ok := reg.Lookup("DEL")
	require.True(t, ok)

	got := fn([]resp.Response{resp.Integer(1), resp.Integer(0), resp.Integer(1)})
	assert.Equal(t, int64(2), got.Int)
}

func TestMgetConcatenatesInOrder(t *testing.T) {
	reg := Default()
	fn, ok := reg.Lookup("MGET")
	require.True(t, ok)

	a := resp.Array([]resp.Response{resp.Simple("a1")})
	b := resp.Array([]resp.Response{resp.Simple("b1"), resp.Simple("b2")})
	got := fn([]resp.Response{a, b})
	require.Len(t, got.Elements, 3)
	assert.Equal(t, "a1", got.Elements[0].Str)
	assert.Equal(t, "b1", got.Elements[1].Str)
	assert.Equal(t, "b2", got.Elements[2].Str)
}

func TestMsetReturnsConstantOK(t *testing.T) {
	reg := Default()
	fn, ok := reg.Lookup("mset")
	require.True(t, ok)
	assert.Equal(t, resp.Simple("OK"), fn(nil))
}

func TestUnregisteredCommandHasNoReducer(t *testing.T) {
	reg := Default()
	_, ok := reg.Lookup("GET")
	assert.False(t, ok)
}

func TestBuilderOverrideIsolated(t *testing.T) {
	custom := NewBuilder().With("PING", func([]resp.Response) resp.Response {
		return resp.Simple("PONG")
	}).Build()

	fn, ok := custom.Lookup("PING")
	require.True(t, ok)
	assert.Equal(t, "PONG", fn(nil).Str)

	_, ok = Default().Lookup("PING")
	assert.False(t, ok)
}
