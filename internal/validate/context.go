// Package validate checks every skill document of a catalog against the
// allowed parents and the global name registry, and aggregates the result
// into a Report.
package validate

import (
	"github.com/randalmurphal/skillcheck/internal/skills"
)

// Registry maps each skill name to the path where it was first seen.
type Registry struct {
	paths map[string]string
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]string)}
}

// Register records name at path. When name is already registered it returns
// the first path and false; the registry is left unchanged.
func (r *Registry) Register(name, path string) (first string, ok bool) {
	if prev, exists := r.paths[name]; exists {
		return prev, false
	}
	r.paths[name] = path
	r.order = append(r.order, name)
	return path, true
}

// Lookup returns the path registered for name.
func (r *Registry) Lookup(name string) (string, bool) {
	p, ok := r.paths[name]
	return p, ok
}

// Len returns the number of distinct registered names.
func (r *Registry) Len() int {
	return len(r.paths)
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Context is the state threaded through one validation run: the category
// set and allowed parents built by the loader, and the registry and issue
// list accumulated by the rule checker.
type Context struct {
	Categories skills.Categories
	Parents    skills.ParentSet
	Registry   *Registry
	Issues     []Issue
	Files      int
	// RootDocuments holds category and subcategory root document paths when
	// roots are exempt from the extends rule.
	RootDocuments map[string]bool

	// extends of each registered name, for cycle detection.
	edges map[string][]string
}

// NewContext returns a context for the given loader output.
func NewContext(categories skills.Categories, parents skills.ParentSet) *Context {
	return &Context{
		Categories: categories,
		Parents:    parents,
		Registry:   NewRegistry(),
		edges:      make(map[string][]string),
	}
}

// Add appends an issue.
func (c *Context) Add(issue Issue) {
	c.Issues = append(c.Issues, issue)
}
