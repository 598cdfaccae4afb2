/*
Package cmi implements the SCORM 2004 CMI data model: the registry of named elements,
their access rules, defaults and value validators, and the per-session Store that holds
the values a SCO has written.

Every value is exchanged as a string. Validators only decide whether a string belongs to
an element's domain; the Store keeps the accepted string verbatim and never coerces it on read.

# Element names

Scalar elements are addressed by their full dot-path (cmi.score.scaled). Collection members
are addressed with a zero-based index (cmi.objectives.0.id) and collections expose the
read-only keywords _count and _children.

	reg := cmi.DefaultRegistry()
	b, err := reg.Lookup("cmi.objectives.0.score.scaled")
	if err != nil {
		// *cmi.ValidationError carrying 401 or 402
	}
*/
package cmi
