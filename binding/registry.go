package binding

import (
	"context"
	"fmt"
	"sync"

	"github.com/unionrel/unionrel/catalog"
)

// Registry tracks the bindings a registrar has installed, so the schema
// objects a bind materializes stay enumerable and auditable instead of
// becoming untracked mutations.
type Registry struct {
	mu       sync.Mutex
	bindings []Binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (g *Registry) record(b Binding) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bindings = append(g.bindings, b)
}

// Bindings returns a copy of the recorded bindings in registration order.
func (g *Registry) Bindings() []Binding {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Binding, len(g.bindings))
	copy(out, g.bindings)
	return out
}

// Validate verifies that every recorded binding's schema objects still
// exist: the referential constraint and all three propagation triggers.
// It reports the first missing object.
func (g *Registry) Validate(ctx context.Context, q catalog.Querier) error {
	for _, b := range g.Bindings() {
		introspector, err := catalog.ForDialect(b.Dialect)
		if err != nil {
			return err
		}
		exists, err := introspector.ConstraintExists(ctx, q, b.Variant, b.Constraint)
		if err != nil {
			return fmt.Errorf("validate %s under %s: %w", b.Variant, b.Union, err)
		}
		if !exists {
			return fmt.Errorf("binding %s under %s: constraint %s is missing", b.Variant, b.Union, b.Constraint)
		}
		for _, name := range b.Triggers {
			exists, err := introspector.TriggerExists(ctx, q, b.Variant, name)
			if err != nil {
				return fmt.Errorf("validate %s under %s: %w", b.Variant, b.Union, err)
			}
			if !exists {
				return fmt.Errorf("binding %s under %s: trigger %s is missing", b.Variant, b.Union, name)
			}
		}
	}
	return nil
}
