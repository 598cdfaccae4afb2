package domain

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// Set contains added or modified elements with their new value.
	Set map[string]string `json:"set,omitempty"`

	// Removed lists elements present in the old snapshot but not in the new one.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, every element of newSnap is reported as set (initial load).
// Returns nil when nothing changed.
func Diff(oldSnap, newSnap Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{}

	for k, v := range newSnap {
		if prev, ok := oldSnap[k]; !ok || prev != v {
			if diff.Set == nil {
				diff.Set = make(map[string]string)
			}
			diff.Set[k] = v
		}
	}

	for _, k := range oldSnap.Keys() {
		if _, ok := newSnap[k]; !ok {
			diff.Removed = append(diff.Removed, k)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d == nil || (len(d.Set) == 0 && len(d.Removed) == 0)
}

// Changed returns the number of elements touched by the diff.
func (d *SnapshotDiff) Changed() int {
	if d == nil {
		return 0
	}
	return len(d.Set) + len(d.Removed)
}
