// Package command holds the per-command routing metadata (key positions,
// classification flags) and the set of commands the cluster router refuses
// to route at all.
package command

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/gravitational/trace"
	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var commandsYAML []byte

// Descriptor is the per-command routing metadata described in spec §3.
type Descriptor struct {
	Name     string
	FirstKey int
	LastKey  int
	KeyStep  int
	Keyless  bool
	ReadOnly bool
	MultiKey bool
	Movable  bool
}

type yamlDescriptor struct {
	Name     string `yaml:"name"`
	FirstKey int    `yaml:"firstKey"`
	LastKey  int    `yaml:"lastKey"`
	KeyStep  int    `yaml:"keyStep"`
	Keyless  bool   `yaml:"keyless"`
	ReadOnly bool   `yaml:"readOnly"`
	MultiKey bool   `yaml:"multiKey"`
	Movable  bool   `yaml:"movable"`
}

type yamlUnsupported struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
}

type yamlTable struct {
	Commands    []yamlDescriptor  `yaml:"commands"`
	Unsupported []yamlUnsupported `yaml:"unsupported"`
}

// Registry is an immutable snapshot of command metadata: safe for
// concurrent reads from any number of goroutines with no locking, per
// spec §5. A topology or command-set change produces a new Registry
// rather than mutating one in place (copy-on-write, per spec §9).
type Registry struct {
	descriptors map[string]Descriptor
	unsupported map[string]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default parses the embedded command table once and returns the shared,
// immutable default Registry. Safe to call concurrently.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = parse(commandsYAML)
	})
	return defaultRegistry, defaultErr
}

func parse(data []byte) (*Registry, error) {
	var table yamlTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, trace.Wrap(err, "parsing command descriptor table")
	}

	r := &Registry{
		descriptors: make(map[string]Descriptor, len(table.Commands)),
		unsupported: make(map[string]string, len(table.Unsupported)),
	}
	for _, d := range table.Commands {
		name := strings.ToUpper(d.Name)
		r.descriptors[name] = Descriptor{
			Name:     name,
			FirstKey: d.FirstKey,
			LastKey:  d.LastKey,
			KeyStep:  d.KeyStep,
			Keyless:  d.Keyless,
			ReadOnly: d.ReadOnly,
			MultiKey: d.MultiKey,
			Movable:  d.Movable,
		}
	}
	for _, u := range table.Unsupported {
		name := strings.ToUpper(u.Name)
		reason := u.Reason
		if reason == "" {
			reason = defaultUnsupportedReason(name)
		}
		r.unsupported[name] = reason
	}
	return r, nil
}

// defaultUnsupportedReason produces the fallback message for an
// unsupported command entry with no explicit reason, enumerating the
// cluster-client-incompatible command classes per spec §4.3.
func defaultUnsupportedReason(name string) string {
	if name == "FLUSHALL" {
		return "FLUSHALL is not supported in cluster mode; use FLUSHDB instead"
	}
	return name + " is an administrative, connection-scoped, transactional, or " +
		"cursor-based command and is not supported in cluster mode"
}

// Lookup returns the Descriptor for name (case-insensitive), if known.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.descriptors[strings.ToUpper(name)]
	return d, ok
}

// UnsupportedReason returns the rejection message for name, if it is
// explicitly unsupported.
func (r *Registry) UnsupportedReason(name string) (string, bool) {
	reason, ok := r.unsupported[strings.ToUpper(name)]
	return reason, ok
}

// Builder accumulates descriptor and unsupported-command overrides on top
// of Default(), producing a new immutable Registry at router construction
// time. This is the "dynamic registration" surface spec §9 calls for:
// process-wide state is captured once, here, rather than mutated under a
// shared lock at request time.
type Builder struct {
	base        *Registry
	descriptors map[string]Descriptor
	unsupported map[string]string
}

// NewBuilder starts a Builder seeded from the default registry.
func NewBuilder() (*Builder, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	return &Builder{
		base:        base,
		descriptors: make(map[string]Descriptor),
		unsupported: make(map[string]string),
	}, nil
}

// WithDescriptor registers or overrides a command's routing metadata.
func (b *Builder) WithDescriptor(d Descriptor) *Builder {
	b.descriptors[strings.ToUpper(d.Name)] = d
	return b
}

// WithUnsupported marks a command as unsupported with the given reason.
func (b *Builder) WithUnsupported(name, reason string) *Builder {
	b.unsupported[strings.ToUpper(name)] = reason
	return b
}

// Build produces the final immutable Registry.
func (b *Builder) Build() *Registry {
	out := &Registry{
		descriptors: make(map[string]Descriptor, len(b.base.descriptors)+len(b.descriptors)),
		unsupported: make(map[string]string, len(b.base.unsupported)+len(b.unsupported)),
	}
	for k, v := range b.base.descriptors {
		out.descriptors[k] = v
	}
	for k, v := range b.descriptors {
		out.descriptors[k] = v
	}
	for k, v := range b.base.unsupported {
		out.unsupported[k] = v
	}
	for k, v := range b.unsupported {
		out.unsupported[k] = v
	}
	return out
}
