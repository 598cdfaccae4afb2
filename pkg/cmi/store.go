package cmi

import (
	"github.com/aretw0/scorm/pkg/domain"
)

// Store holds the values of one session. It is not safe for concurrent use; the RTE is
// called by one content frame at a time.
type Store struct {
	registry *Registry
	values   map[string]string
	counts   map[string]int
}

// NewStore creates a store seeded with host-provided values (learner_id, entry, resumed data).
// Seed values are trusted and stored verbatim. Collection counts are derived from seeded indices.
func NewStore(reg *Registry, seed map[string]string) *Store {
	s := &Store{
		registry: reg,
		values:   make(map[string]string, len(seed)),
		counts:   make(map[string]int),
	}
	for k, v := range seed {
		s.values[k] = v
		if b, err := reg.Lookup(k); err == nil && b.Collection != nil {
			if b.Index+1 > s.counts[b.Collection.Name] {
				s.counts[b.Collection.Name] = b.Index + 1
			}
		}
	}
	return s
}

// Registry returns the descriptors backing the store.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Read returns the value a SCO observes through GetValue.
// Stored values are returned verbatim; unset elements yield their default.
func (s *Store) Read(name string) (string, error) {
	b, err := s.registry.Lookup(name)
	if err != nil {
		return "", err
	}
	e := b.Element
	if !e.Access.Readable() {
		return "", Fail(domain.DataModelElementIsWriteOnly, "%s is write-only", name)
	}
	if c := b.Collection; c != nil {
		if count := s.Count(c.Name); b.Index >= count {
			return "", Fail(domain.GeneralGetFailure, "%s has %d entries, index %d does not exist", c.Name, count, b.Index)
		}
	}
	if v, ok := s.values[b.Key]; ok {
		return v, nil
	}
	if e.Generate != nil {
		return e.Generate(s), nil
	}
	if e.Uninitialized {
		return "", Fail(domain.DataModelElementValueNotInitialized, "%s has not been set", name)
	}
	return e.Default, nil
}

// Write applies a SetValue. On success the raw string is stored.
func (s *Store) Write(name, value string) error {
	b, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}
	e := b.Element
	if e.Keyword {
		return Fail(domain.DataModelElementIsReadOnly, "%s is a data model keyword", name)
	}
	if !e.Access.Writable() {
		return Fail(domain.DataModelElementIsReadOnly, "%s is read-only", name)
	}

	c := b.Collection
	count := 0
	if c != nil {
		count = s.Count(c.Name)
		if b.Index > count {
			return Fail(domain.GeneralSetFailure, "%s entries must be added in order, next index is %d", c.Name, count)
		}
		if b.Index == count && c.IDField != "" && b.Field != c.IDField {
			return Fail(domain.DataModelDependencyNotEstablished, "%s must be set before other fields of a new entry",
				c.Key(b.Index, c.IDField))
		}
		if dep := e.DependsOn; dep != "" {
			if _, ok := s.values[c.Key(b.Index, dep)]; !ok {
				return Fail(domain.DataModelDependencyNotEstablished, "%s must be set before %s", c.Key(b.Index, dep), name)
			}
		}
	}

	if err := e.Check(value); err != nil {
		return err
	}

	if c != nil && c.UniqueID && b.Field == c.IDField {
		for i := 0; i < count; i++ {
			if i != b.Index && s.values[c.Key(i, c.IDField)] == value {
				return Fail(domain.GeneralSetFailure, "%s %q is already used at index %d", c.IDField, value, i)
			}
		}
	}

	s.values[b.Key] = value
	if c != nil && b.Index == count {
		s.counts[c.Name] = count + 1
	}
	return nil
}

// Put stores a host-computed value, bypassing access rules (cmi.total_time).
func (s *Store) Put(key, value string) {
	s.values[key] = value
}

// Raw returns the stored value without applying defaults.
func (s *Store) Raw(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Count returns the number of entries of a collection.
func (s *Store) Count(collection string) int {
	return s.counts[collection]
}

// Snapshot copies the stored values. Defaults of unset elements are not included.
func (s *Store) Snapshot() domain.Snapshot {
	return domain.Snapshot(s.values).Clone()
}
