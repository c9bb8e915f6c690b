// Package registry holds the immutable set of domain responders a question
// can be routed to. A Registry is built once at startup and shared read-only
// across every invocation and dispatch goroutine.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a registry source lists no responders.
var ErrEmpty = errors.New("registry: no responders defined")

//go:embed defaults.yaml
var defaultsYAML []byte

// Responder describes one domain-specialized answering backend.
type Responder struct {
	// ID is the stable identifier the decomposer tags sub-questions with.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable display name used in prompts and traces.
	Name string `yaml:"name" json:"name"`

	// Description tells the decomposer what the responder can answer.
	Description string `yaml:"description" json:"description"`

	// Target is the routing identifier sent to the completion backend.
	Target string `yaml:"target" json:"target"`
}

// Registry maps responder IDs to their definitions. The zero value is an
// empty registry; use New or Load to build a populated one.
type Registry struct {
	byID  map[string]Responder
	order []string
}

// New builds a Registry from responders, preserving their order for prompt
// rendering. IDs must be non-empty and unique.
func New(responders ...Responder) (*Registry, error) {
	if len(responders) == 0 {
		return nil, ErrEmpty
	}

	r := &Registry{
		byID:  make(map[string]Responder, len(responders)),
		order: make([]string, 0, len(responders)),
	}
	for i, resp := range responders {
		resp.ID = strings.TrimSpace(resp.ID)
		if resp.ID == "" {
			return nil, fmt.Errorf("registry: responder %d has an empty id", i)
		}
		if _, dup := r.byID[resp.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate responder id %q", resp.ID)
		}
		if resp.Name == "" {
			resp.Name = resp.ID
		}
		r.byID[resp.ID] = resp
		r.order = append(r.order, resp.ID)
	}
	return r, nil
}

// file is the on-disk YAML layout.
type file struct {
	Responders []Responder `yaml:"responders"`
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("registry: decode yaml: %w", err)
	}
	return New(f.Responders...)
}

// Load reads a YAML registry from path. An empty path yields the embedded
// default registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultsYAML)
}

// DefaultYAML returns a copy of the embedded default registry document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultsYAML))
	copy(out, defaultsYAML)
	return out
}

// Lookup returns the responder registered under id.
func (r *Registry) Lookup(id string) (Responder, bool) {
	if r == nil {
		return Responder{}, false
	}
	resp, ok := r.byID[id]
	return resp, ok
}

// DisplayName returns the responder's display name, or id itself when the
// responder is not registered.
func (r *Registry) DisplayName(id string) string {
	if resp, ok := r.Lookup(id); ok {
		return resp.Name
	}
	return id
}

// All returns every responder in registration order.
func (r *Registry) All() []Responder {
	if r == nil {
		return nil
	}
	out := make([]Responder, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every responder ID in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports the number of registered responders.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
