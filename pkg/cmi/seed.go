package cmi

import (
	"errors"
	"fmt"
)

// CheckSeed validates host-provided launch values against the registry.
// Access rules do not apply (hosts seed read-only elements); names and value domains do.
// All violations are returned joined.
func (r *Registry) CheckSeed(seed map[string]string) error {
	var errs []error
	for k, v := range seed {
		b, err := r.Lookup(k)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", k, err))
			continue
		}
		if b.Element.Keyword {
			errs = append(errs, fmt.Errorf("seed %s: keyword elements are computed", k))
			continue
		}
		if err := b.Element.Check(v); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
