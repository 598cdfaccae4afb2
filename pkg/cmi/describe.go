package cmi

import (
	"slices"
	"strings"
)

// ElementInfo is the printable description of one element or collection member.
// Collection members use "n" in place of the index.
type ElementInfo struct {
	Name    string `json:"name"`
	Access  string `json:"access"`
	Default string `json:"default,omitempty"`
	Keyword bool   `json:"keyword,omitempty"`
	Doc     string `json:"doc,omitempty"`
}

// Describe lists every element of the registry: scalars (including the
// _count and _children keywords of collections) first, then the members of
// each collection in definition order.
func (r *Registry) Describe() []ElementInfo {
	var out []ElementInfo
	for _, e := range r.Elements() {
		out = append(out, describe(e.Name, e, e.Access))
	}
	for _, c := range r.Collections() {
		fields := make([]string, 0, len(c.Fields))
		for name := range c.Fields {
			fields = append(fields, name)
		}
		slices.Sort(fields)
		for _, name := range fields {
			f := c.Fields[name]
			access := c.Access
			if f.Access != ReadWrite {
				access = f.Access
			}
			out = append(out, describe(c.Name+".n."+name, f, access))
		}
	}
	return out
}

func describe(name string, e *Element, access Access) ElementInfo {
	info := ElementInfo{
		Name:    name,
		Access:  access.String(),
		Keyword: e.Keyword || strings.HasSuffix(name, "._children"),
		Doc:     e.Doc,
	}
	if e.Generate == nil && !e.Uninitialized {
		info.Default = e.Default
	}
	return info
}
