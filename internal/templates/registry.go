// Package templates is the static list of resume templates offered in the UI.
// Every id must match a .tex file known to the backend.
package templates

import (
	"errors"
	"fmt"

	"github.com/devilmonastery/cvforge/internal/api"
)

// Descriptor describes a selectable template
type Descriptor struct {
	ID         string
	Name       string
	PreviewURL string
}

var registry = []Descriptor{
	{
		ID:         "cv_template",
		Name:       "Klassisch",
		PreviewURL: "/static/templates/classic.svg",
	},
	{
		ID:         "modern",
		Name:       "Modern",
		PreviewURL: "/static/templates/modern.svg",
	},
	{
		ID:         "minimal",
		Name:       "Minimal",
		PreviewURL: "/static/templates/minimal.svg",
	},
}

// All returns a copy of the registered templates in display order
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Default returns the template used when none is selected
func Default() Descriptor {
	return registry[0]
}

// Lookup finds a template by id
func Lookup(id string) (Descriptor, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate checks a template list for duplicate ids and missing display fields
func Validate(list []Descriptor) error {
	var errs []error
	seen := make(map[string]bool, len(list))
	for i, d := range list {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("template %d: empty id", i))
		} else if seen[d.ID] {
			errs = append(errs, fmt.Errorf("template %q: duplicate id", d.ID))
		}
		seen[d.ID] = true

		if d.Name == "" {
			errs = append(errs, fmt.Errorf("template %q: empty name", d.ID))
		}
		if d.PreviewURL == "" {
			errs = append(errs, fmt.Errorf("template %q: empty preview url", d.ID))
		}
	}
	return errors.Join(errs...)
}

// Reconcile returns the ids in list that the backend does not know about
func Reconcile(list []Descriptor, backend []api.BackendTemplate) []string {
	known := make(map[string]bool, len(backend))
	for _, b := range backend {
		known[b.ID] = true
	}

	var missing []string
	for _, d := range list {
		if !known[d.ID] {
			missing = append(missing, d.ID)
		}
	}
	return missing
}
