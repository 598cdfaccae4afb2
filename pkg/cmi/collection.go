package cmi

import (
	"strconv"
	"strings"
)

// Collection describes an indexed element family such as cmi.objectives.
type Collection struct {
	Name   string
	Access Access

	// Children is the value of the collection's _children keyword.
	Children string

	// IDField must be written first when a new index is created. Empty when there is no such dependency.
	IDField string

	// UniqueID rejects an IDField value already used at another index.
	UniqueID bool

	// Fields maps the path after the index ("score.scaled") to its descriptor.
	Fields map[string]*Element

	// Unimplemented lists field prefixes recognised by SCORM that this model does not support.
	Unimplemented []string
}

// Key builds the store key for a member field.
func (c *Collection) Key(index int, field string) string {
	return c.Name + "." + strconv.Itoa(index) + "." + field
}

func (c *Collection) unimplemented(field string) bool {
	for _, p := range c.Unimplemented {
		if field == p || strings.HasPrefix(field, p+".") {
			return true
		}
	}
	return false
}
