// Package reduce holds the pluggable per-command functions that combine
// an ordered list of partial replies from a scatter/gather dispatch into
// a single logical reply.
package reduce

import (
	"strings"

	"github.com/kevwan/radixcluster/resp"
)

// Func reduces partials, in sub-request issue order, to one Response.
// It is invoked only once every partial has succeeded (spec §4.4).
type Func func(partials []resp.Response) resp.Response

// Registry is an immutable, concurrency-safe map of command name to Func.
type Registry struct {
	funcs map[string]Func
}

// Builder accumulates reducer registrations before producing an
// immutable Registry, mirroring command.Builder's copy-on-write pattern.
type Builder struct {
	funcs map[string]Func
}

// NewBuilder starts a Builder seeded with the built-in reducers from
// spec §4.4.
func NewBuilder() *Builder {
	b := &Builder{funcs: make(map[string]Func)}
	b.With("MSET", constantOK)
	b.With("MSETNX", constantOK)
	b.With("DEL", sumIntegers)
	b.With("UNLINK", sumIntegers)
	b.With("EXISTS", sumIntegers)
	b.With("TOUCH", sumIntegers)
	b.With("MGET", concatArrays)
	b.With("KEYS", concatArrays)
	b.With("FLUSHDB", constantOK)
	b.With("DBSIZE", sumIntegers)
	return b
}

// With registers a reducer for command name, overwriting any prior entry.
func (b *Builder) With(name string, fn Func) *Builder {
	b.funcs[strings.ToUpper(name)] = fn
	return b
}

// Build produces the final immutable Registry.
func (b *Builder) Build() *Registry {
	out := &Registry{funcs: make(map[string]Func, len(b.funcs))}
	for k, v := range b.funcs {
		out.funcs[k] = v
	}
	return out
}

// Default returns a fresh Registry containing only the built-in reducers.
func Default() *Registry {
	return NewBuilder().Build()
}

// Lookup returns the reducer registered for name, if any.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[strings.ToUpper(name)]
	return fn, ok
}

func constantOK([]resp.Response) resp.Response {
	return resp.Simple("OK")
}

func sumIntegers(partials []resp.Response) resp.Response {
	var sum int64
	for _, p := range partials {
		sum += p.Int
	}
	return resp.Integer(sum)
}

func concatArrays(partials []resp.Response) resp.Response {
	var out []resp.Response
	for _, p := range partials {
		out = append(out, p.Elements...)
	}
	return resp.Array(out)
}
