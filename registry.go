package widget

import (
	"encoding/json"
	"sort"
	"sync"
)

// DefaultComponent is the name the stock widget registers under.
const DefaultComponent = "assistant-widget"

// Factory builds a widget component from its configuration. Custom
// components register one to become reachable by name and through the
// declarative loader.
type Factory func(cfg Config, opts ...Option) (*Widget, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register(DefaultComponent, New)
}

// Register makes a named component available to Create and the
// declarative loader. Registering an existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Components returns the registered component names, sorted.
func Components() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create instantiates a registered component by name. It behaves
// identically to calling the component's factory directly.
func Create(name string, cfg Config, opts ...Option) (*Widget, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errorf(KindConfiguration, "create", "unknown component %q", name)
	}
	return factory(cfg, opts...)
}

// NewFromJSON builds a widget from a serialized configuration blob —
// the declarative embedding surface. The blob is the JSON form of
// Config, optionally carrying a "component" field naming a registered
// factory; absent, the stock component is used. Behavior is identical
// to constructing the same Config directly.
func NewFromJSON(blob []byte, opts ...Option) (*Widget, error) {
	const op = "config"

	var probe struct {
		Component string `json:"component"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return nil, errorf(KindConfiguration, op, "invalid configuration blob: %v", err)
	}

	var cfg Config
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return nil, errorf(KindConfiguration, op, "invalid configuration blob: %v", err)
	}

	name := probe.Component
	if name == "" {
		name = DefaultComponent
	}
	return Create(name, cfg, opts...)
}
