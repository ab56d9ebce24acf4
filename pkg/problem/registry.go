package problem

import (
	"sort"

	"github.com/aretw0/manipd/pkg/domain"
)

// DefaultKey is the problem created and selected at startup.
const DefaultKey = "default"

// Registry is a keyed collection of problems, one of which is selected.
// It performs no locking.
type Registry struct {
	problems map[string]*Problem
	selected string
}

// NewRegistry creates an empty registry with nothing selected.
func NewRegistry() *Registry {
	return &Registry{problems: make(map[string]*Problem)}
}

// Create inserts a fresh problem under key and returns it. An existing entry
// under key is silently replaced. If nothing is selected yet, key becomes
// the selection.
func (r *Registry) Create(key string) *Problem {
	p := New()
	r.problems[key] = p
	if r.selected == "" {
		r.selected = key
	}
	return p
}

// Select marks key as active.
func (r *Registry) Select(key string) error {
	if _, ok := r.problems[key]; !ok {
		return domain.Errorf(domain.ErrNotFound, "problem %q", key)
	}
	r.selected = key
	return nil
}

// Active returns the selected problem.
func (r *Registry) Active() (*Problem, error) {
	if r.selected == "" {
		return nil, domain.Errorf(domain.ErrNoActiveProblem, "no problem has been selected")
	}
	return r.Get(r.selected)
}

// Selected returns the selected key.
func (r *Registry) Selected() (string, error) {
	if r.selected == "" {
		return "", domain.Errorf(domain.ErrNoActiveProblem, "no problem has been selected")
	}
	return r.selected, nil
}

// Get returns the problem under key.
func (r *Registry) Get(key string) (*Problem, error) {
	p, ok := r.problems[key]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "problem %q", key)
	}
	return p, nil
}

// Has reports whether key exists.
func (r *Registry) Has(key string) bool {
	_, ok := r.problems[key]
	return ok
}

// Keys returns every key, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.problems))
	for k := range r.problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReplaceSelected swaps the selected entry for p. Front-ends holding the old
// pointer keep the old problem.
func (r *Registry) ReplaceSelected(p *Problem) error {
	if r.selected == "" {
		return domain.Errorf(domain.ErrNoActiveProblem, "no problem has been selected")
	}
	r.problems[r.selected] = p
	return nil
}
