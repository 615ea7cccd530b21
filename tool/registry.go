package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/agentloop/agentloop/model"
)

// ErrDuplicateTool is returned when registering a tool whose name is already
// taken. Use errors.Is to detect it.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry is an in-memory catalog mapping tool name to callable capability.
// Storage preserves insertion order so the tool definitions sent to the
// model are reproducible across runs.
//
// Registry is guarded by a read-write mutex, but registration concurrent
// with an in-flight run is undefined behavior and should be avoided by
// convention: runs treat the catalog as read-mostly.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the catalog. It fails with ErrDuplicateTool if a
// tool with the same name already exists.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// RegisterMany applies Register to each tool independently: a later
// duplicate does not roll back earlier successful registrations. The first
// error encountered is returned.
func (r *Registry) RegisterMany(tools ...Tool) error {
	var firstErr error
	for _, t := range tools {
		if err := r.Register(t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Unregister removes a tool by name and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the tool registered under name and whether it exists.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions projects the catalog to its wire-facing shape in registration
// order, omitting invocation capabilities.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
