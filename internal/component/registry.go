package component

import (
	"fmt"
	"sort"
)

// Registry maps component names to their declarations and behaviors.
//
// Declarations usually arrive from the CUE compiler; behaviors are Go code
// registered at program start. A scenario names a component and the harness
// resolves both halves here. Registries are plain values with no global
// state - pass them explicitly.
type Registry struct {
	decls     map[string]*Declaration
	behaviors map[string]Behavior
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decls:     make(map[string]*Declaration),
		behaviors: make(map[string]Behavior),
	}
}

// Register adds a component's declaration and behavior under the
// declaration's name. Re-registering a name is an error: two behaviors for
// one component is a wiring bug, not a configuration.
func (r *Registry) Register(decl *Declaration, b Behavior) error {
	if err := decl.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if _, exists := r.decls[decl.Name]; exists {
		return fmt.Errorf("register: component %q already registered", decl.Name)
	}
	r.decls[decl.Name] = decl
	r.behaviors[decl.Name] = b
	return nil
}

// RegisterDeclaration adds a compiled declaration without a behavior,
// replacing any previously registered declaration for the same name.
// Used when declarations are loaded from CUE after behaviors were wired.
func (r *Registry) RegisterDeclaration(decl *Declaration) error {
	if err := decl.Validate(); err != nil {
		return fmt.Errorf("register declaration: %w", err)
	}
	r.decls[decl.Name] = decl
	return nil
}

// RegisterBehavior adds a behavior for a component name that already has, or
// will receive, a declaration.
func (r *Registry) RegisterBehavior(name string, b Behavior) error {
	if name == "" {
		return fmt.Errorf("register behavior: component name is required")
	}
	if _, exists := r.behaviors[name]; exists {
		return fmt.Errorf("register behavior: component %q already has a behavior", name)
	}
	r.behaviors[name] = b
	return nil
}

// Lookup resolves a component name to its declaration and behavior.
func (r *Registry) Lookup(name string) (*Declaration, Behavior, error) {
	decl, ok := r.decls[name]
	if !ok {
		return nil, Behavior{}, fmt.Errorf("component %q not registered", name)
	}
	b, ok := r.behaviors[name]
	if !ok {
		return nil, Behavior{}, fmt.Errorf("component %q has a declaration but no behavior", name)
	}
	return decl, b, nil
}

// Names returns registered component names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.decls))
	for name := range r.decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
