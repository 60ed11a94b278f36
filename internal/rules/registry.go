package rules

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages rules by ID.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Builtin returns a registry holding the standard Solidity catalog.
func Builtin() *Registry {
	r := NewRegistry()
	for _, rule := range Catalog() {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule *Rule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("rule must have an ID")
	}
	if rule.Match == nil {
		return fmt.Errorf("rule %q has no matcher", rule.ID)
	}
	if !rule.Kind.IsValid() || !rule.Severity.IsValid() {
		return fmt.Errorf("rule %q has invalid kind %q or severity %q", rule.ID, rule.Kind, rule.Severity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; ok {
		return fmt.Errorf("rule %q already registered", rule.ID)
	}
	r.rules[rule.ID] = rule
	return nil
}

// Get retrieves a rule by ID.
func (r *Registry) Get(id string) (*Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return rule, nil
}

// All returns all registered rules sorted by ID.
func (r *Registry) All() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
