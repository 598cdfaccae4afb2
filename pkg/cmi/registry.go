package cmi

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/scorm/pkg/domain"
)

// Registry is the set of element descriptors a session validates against.
// It is built once and only read afterwards, so one Registry may back any number of sessions.
type Registry struct {
	elements      map[string]*Element
	collections   []*Collection
	unimplemented []string
}

// Binding is the result of resolving an element name.
type Binding struct {
	Element *Element

	// Key is the store key holding the element's value.
	Key string

	// Collection, Index and Field are set for collection members only.
	Collection *Collection
	Index      int
	Field      string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{elements: make(map[string]*Element)}
}

// Define registers a scalar element. An existing element with the same name is replaced.
func (r *Registry) Define(e *Element) *Registry {
	r.elements[e.Name] = e
	return r
}

// DefineCollection registers an indexed family along with its _count and _children keywords.
func (r *Registry) DefineCollection(c *Collection) *Registry {
	r.collections = append(r.collections, c)
	name := c.Name
	r.Define(&Element{
		Name:     name + "._count",
		Access:   ReadOnly,
		Keyword:  true,
		Generate: func(s *Store) string { return strconv.Itoa(s.Count(name)) },
		Doc:      "Number of entries currently stored in " + name,
	})
	r.Define(keyword(name+"._children", c.Children, "Fields supported by each entry of "+name))
	return r
}

// Unimplemented marks a name prefix as recognised but unsupported (402 instead of 401).
func (r *Registry) Unimplemented(prefix string) *Registry {
	r.unimplemented = append(r.unimplemented, prefix)
	return r
}

// Lookup resolves an element name. Unknown names fail with 401, recognised but unsupported
// names with 402.
func (r *Registry) Lookup(name string) (Binding, error) {
	if e, ok := r.elements[name]; ok {
		return Binding{Element: e, Key: name, Index: -1}, nil
	}

	for _, c := range r.collections {
		rest, ok := strings.CutPrefix(name, c.Name+".")
		if !ok {
			continue
		}
		idx, field, ok := strings.Cut(rest, ".")
		if !ok {
			return Binding{}, Fail(domain.UndefinedDataModelElement, "%q is missing a field after the index", name)
		}
		n, ok := parseIndex(idx)
		if !ok {
			return Binding{}, Fail(domain.UndefinedDataModelElement, "%q has an invalid index %q", name, idx)
		}
		if e, ok := c.Fields[field]; ok {
			return Binding{Element: e, Key: c.Key(n, field), Collection: c, Index: n, Field: field}, nil
		}
		if c.unimplemented(field) {
			return Binding{}, Fail(domain.UnimplementedDataModelElement, "%q is not implemented by this LMS", name)
		}
		return Binding{}, Fail(domain.UndefinedDataModelElement, "%q is not a field of %s", field, c.Name)
	}

	for _, p := range r.unimplemented {
		if strings.HasPrefix(name, p) {
			return Binding{}, Fail(domain.UnimplementedDataModelElement, "%q is not implemented by this LMS", name)
		}
	}
	return Binding{}, Fail(domain.UndefinedDataModelElement, "%q is not a SCORM 2004 data model element", name)
}

// Elements returns the scalar descriptors ordered by name.
func (r *Registry) Elements() []*Element {
	out := make([]*Element, 0, len(r.elements))
	for _, e := range r.elements {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Element) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Collections returns the registered collections in definition order.
func (r *Registry) Collections() []*Collection {
	return slices.Clone(r.collections)
}

func parseIndex(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
