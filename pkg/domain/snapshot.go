package domain

import (
	"maps"
	"slices"
)

// Snapshot is a copy of the data store: element name to raw string value.
// It is the only shape the engine promises to persistence collaborators.
type Snapshot map[string]string

// Clone returns an independent copy so hooks cannot mutate engine state.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return maps.Clone(s)
}

// Keys returns the element names in lexical order.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}
