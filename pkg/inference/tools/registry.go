package tools

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ToolRegistry manages available tools with thread-safe operations
type ToolRegistry interface {
	RegisterTool(name string, def ToolDefinition) error
	GetTool(name string) (*ToolDefinition, error)
	ListTools() []ToolDefinition
	HasTool(name string) bool
}

// InMemoryToolRegistry is a thread-safe in-memory implementation of ToolRegistry
type InMemoryToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]ToolDefinition
}

var _ ToolRegistry = (*InMemoryToolRegistry)(nil)

func NewInMemoryToolRegistry() *InMemoryToolRegistry {
	return &InMemoryToolRegistry{
		tools: make(map[string]ToolDefinition),
	}
}

// RegisterTool registers a tool under name. Registering the same name twice is an error.
func (r *InMemoryToolRegistry) RegisterTool(name string, def ToolDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if def.Name != "" && def.Name != name {
		return errors.Errorf("tool definition name (%s) does not match registry name (%s)", def.Name, name)
	}
	if _, exists := r.tools[name]; exists {
		return errors.Errorf("tool already registered: %s", name)
	}

	def.Name = name
	r.tools[name] = def
	return nil
}

// Register is a convenience for registering definitions produced by NewToolFromFunc.
func (r *InMemoryToolRegistry) Register(defs ...*ToolDefinition) error {
	for _, def := range defs {
		if def == nil {
			continue
		}
		if err := r.RegisterTool(def.Name, *def); err != nil {
			return err
		}
	}
	return nil
}

func (r *InMemoryToolRegistry) GetTool(name string) (*ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.Errorf("tool not found: %s", name)
	}
	return &tool, nil
}

// ListTools returns all registered tools sorted by name, so that requests sent
// to the model are stable across runs.
func (r *InMemoryToolRegistry) ListTools() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func (r *InMemoryToolRegistry) HasTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Names returns the sorted tool names.
func (r *InMemoryToolRegistry) Names() []string {
	tools := r.ListTools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

// Clone returns a shallow copy of the registry.
func (r *InMemoryToolRegistry) Clone() *InMemoryToolRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := NewInMemoryToolRegistry()
	for name, tool := range r.tools {
		cloned.tools[name] = tool
	}
	return cloned
}
