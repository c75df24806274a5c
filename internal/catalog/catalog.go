// package catalog holds the fixed set of migratable components.
//
// A [Catalog] is built once at startup, either directly from descriptors or from
// the component mapping JSON document, and is read-only afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/desertthunder/migtrack/internal/shared"
)

// Legacy describes the parts of a component in the source application.
type Legacy struct {
	Controller string   `json:"controller,omitempty"`
	Model      string   `json:"model,omitempty"`
	Views      []string `json:"views,omitempty"`
	Routes     string   `json:"routes,omitempty"`
}

// Target describes the component in the destination application.
//
// Present is set whenever the document carries a target entry, even an empty one.
type Target struct {
	Present bool   `json:"-"`
	Module  string `json:"module,omitempty"`
}

// Descriptor is the static description of one catalog component.
type Descriptor struct {
	Name            string   `json:"name"`
	Legacy          Legacy   `json:"legacy"`
	Target          Target   `json:"target"`
	Tasks           []string `json:"tasks,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	EstimatedEffort string   `json:"estimated_effort,omitempty"`
}

// DeriveTasks returns the ordered, duplicate-free task list for a fresh tracking record.
//
// Explicit tasks win. Otherwise tasks follow the legacy parts, then the target work.
func (d Descriptor) DeriveTasks() []string {
	var tasks []string
	if len(d.Tasks) > 0 {
		tasks = append(tasks, d.Tasks...)
	} else {
		if d.Legacy.Controller != "" {
			tasks = append(tasks, "Migrate controller: "+d.Legacy.Controller)
		}
		if d.Legacy.Model != "" {
			tasks = append(tasks, "Migrate model: "+d.Legacy.Model)
		}
		for _, v := range d.Legacy.Views {
			tasks = append(tasks, "Migrate view: "+v)
		}
		if d.Legacy.Routes != "" {
			tasks = append(tasks, "Migrate routes")
		}
		if d.Target.Present {
			tasks = append(tasks, "Create target implementation", "Test functionality", "Validate parity")
		}
	}

	seen := make(map[string]struct{}, len(tasks))
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Catalog is an immutable set of component descriptors keyed by name.
type Catalog struct {
	byName map[string]Descriptor
	names  []string
}

// New builds a catalog. Empty or duplicate names are rejected.
func New(descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("%w: component name is empty", shared.ErrInvalidArgument)
		}
		if _, ok := c.byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate component %q", shared.ErrInvalidArgument, d.Name)
		}
		d.Legacy.Views = slices.Clone(d.Legacy.Views)
		d.Tasks = slices.Clone(d.Tasks)
		c.byName[d.Name] = d
		c.names = append(c.names, d.Name)
	}
	slices.Sort(c.names)
	return c, nil
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	d.Legacy.Views = slices.Clone(d.Legacy.Views)
	d.Tasks = slices.Clone(d.Tasks)
	return d, true
}

// Names returns component names in ascending order.
func (c *Catalog) Names() []string { return slices.Clone(c.names) }

func (c *Catalog) Len() int { return len(c.names) }

// Descriptors returns every descriptor ordered by name.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.names))
	for _, n := range c.names {
		d, _ := c.Lookup(n)
		out = append(out, d)
	}
	return out
}

type documentEntry struct {
	Legacy          *Legacy         `json:"legacy"`
	Laravel         *Legacy         `json:"laravel"`
	Target          json.RawMessage `json:"target"`
	Django          json.RawMessage `json:"django"`
	Tasks           []string        `json:"tasks"`
	Priority        string          `json:"priority"`
	EstimatedEffort string          `json:"estimated_effort"`
}

type document struct {
	Components map[string]documentEntry `json:"components"`
}

// Decode parses a component mapping document.
//
// The legacy and target keys also accept the older "laravel" and "django" spellings.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse component mapping: %v", shared.ErrInvalidInput, err)
	}

	descriptors := make([]Descriptor, 0, len(doc.Components))
	for name, e := range doc.Components {
		d := Descriptor{
			Name:            name,
			Tasks:           e.Tasks,
			Priority:        e.Priority,
			EstimatedEffort: e.EstimatedEffort,
		}

		switch {
		case e.Legacy != nil:
			d.Legacy = *e.Legacy
		case e.Laravel != nil:
			d.Legacy = *e.Laravel
		}

		raw := e.Target
		if !present(raw) {
			raw = e.Django
		}
		if present(raw) {
			d.Target.Present = true
			var t struct {
				Module string `json:"module"`
			}
			// Non-object targets only mark presence.
			if err := json.Unmarshal(raw, &t); err == nil {
				d.Target.Module = t.Module
			}
		}

		descriptors = append(descriptors, d)
	}
	return New(descriptors...)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// LoadFile reads and decodes the component mapping at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrMissingConfig, path, err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
