// Package catalog holds the ordered table of benchmark categories and their
// controls, the parameterized builders that produce repetitive controls, and
// the built-in section 1 catalogue.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/engine"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/probe"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// ErrDuplicateControl is returned when a control ID is registered twice.
var ErrDuplicateControl = errors.New("duplicate control ID")

// ControlIDPattern matches dotted numeric benchmark identifiers.
var ControlIDPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Registry is the explicit, ordered table of categories. It is built once and
// only read while a run is in progress.
type Registry struct {
	categories []types.Category
	byID       map[string]location
	guard      *probe.Guard
}

type location struct {
	category int
	control  int
}

// NewRegistry validates and registers the given categories in order.
func NewRegistry(categories ...types.Category) (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]location),
		guard: probe.NewGuard(),
	}
	for _, cat := range categories {
		if err := r.Append(cat.Title, cat.Controls...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Append adds controls to the end of the category with the given title, creating
// the category after the existing ones when it is new. Nothing is added when any
// control is invalid.
func (r *Registry) Append(title string, controls ...types.Control) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("category title must not be empty")
	}

	seen := make(map[string]bool, len(controls))
	for _, c := range controls {
		if err := r.validateControl(c); err != nil {
			return fmt.Errorf("category %q: %w", title, err)
		}
		if _, dup := r.byID[c.ID]; dup || seen[c.ID] {
			return fmt.Errorf("category %q: %w: %s", title, ErrDuplicateControl, c.ID)
		}
		seen[c.ID] = true
	}

	ci := r.indexOf(title)
	if ci < 0 {
		r.categories = append(r.categories, types.Category{Title: title})
		ci = len(r.categories) - 1
	}
	for _, c := range controls {
		r.byID[c.ID] = location{category: ci, control: len(r.categories[ci].Controls)}
		r.categories[ci].Controls = append(r.categories[ci].Controls, c)
	}
	return nil
}

func (r *Registry) validateControl(c types.Control) error {
	if !ControlIDPattern.MatchString(c.ID) {
		return fmt.Errorf("invalid control ID %q: must be dotted numbers like 1.1.1.1", c.ID)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("control %s: title must not be empty", c.ID)
	}
	if len(c.Probes) == 0 {
		return fmt.Errorf("control %s: at least one probe is required", c.ID)
	}
	for i, p := range c.Probes {
		if err := r.guard.Check(p.Command); err != nil {
			return fmt.Errorf("control %s probe %d: %w", c.ID, i, err)
		}
	}
	if err := engine.ValidateRule(c.Rule, len(c.Probes)); err != nil {
		return fmt.Errorf("control %s: %w", c.ID, err)
	}
	return nil
}

func (r *Registry) indexOf(title string) int {
	for i, cat := range r.categories {
		if cat.Title == title {
			return i
		}
	}
	return -1
}

// Categories returns every category in registry order.
func (r *Registry) Categories() []types.Category {
	out := make([]types.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Category returns the category with the given title.
func (r *Registry) Category(title string) (types.Category, bool) {
	if i := r.indexOf(title); i >= 0 {
		return r.categories[i], true
	}
	return types.Category{}, false
}

// Lookup returns the control with the given ID and the title of its category.
func (r *Registry) Lookup(id string) (types.Control, string, bool) {
	loc, ok := r.byID[id]
	if !ok {
		return types.Control{}, "", false
	}
	cat := r.categories[loc.category]
	return cat.Controls[loc.control], cat.Title, true
}

// All returns every control in registry order.
func (r *Registry) All() []types.Control {
	var all []types.Control
	for _, cat := range r.categories {
		all = append(all, cat.Controls...)
	}
	return all
}

// IDs returns every control ID in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for _, c := range r.All() {
		ids = append(ids, c.ID)
	}
	return ids
}

// Select returns the categories matching one of the selectors, in registry order.
// A selector matches a category by section number ("1.1"), by full title, or by a
// case-insensitive prefix of the name ("boot"). No selectors selects every category.
func (r *Registry) Select(prefixes ...string) []types.Category {
	if len(prefixes) == 0 {
		return r.Categories()
	}
	var out []types.Category
	for _, cat := range r.categories {
		for _, p := range prefixes {
			if matchesCategory(cat, p) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// Only returns a single category holding just the control with the given ID.
func (r *Registry) Only(id string) ([]types.Category, bool) {
	c, title, ok := r.Lookup(id)
	if !ok {
		return nil, false
	}
	return []types.Category{{Title: title, Controls: []types.Control{c}}}, true
}

func matchesCategory(cat types.Category, selector string) bool {
	if selector == "" {
		return false
	}
	if cat.Number() == selector || cat.Title == selector {
		return true
	}
	return strings.HasPrefix(strings.ToLower(cat.Name()), strings.ToLower(selector))
}
