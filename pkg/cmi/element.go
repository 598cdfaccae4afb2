package cmi

// Access describes which API calls may touch an element.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}

// Readable reports whether GetValue may return the element.
func (a Access) Readable() bool { return a != WriteOnly }

// Writable reports whether SetValue may change the element.
func (a Access) Writable() bool { return a != ReadOnly }

// Element is the immutable descriptor of one data model element.
type Element struct {
	// Name is the dot-path for scalars, or the field path relative to the index for collection members.
	Name   string
	Access Access

	// Default is returned by GetValue until the element is written.
	Default string

	// Generate computes the value on read (keywords such as _count). It wins over Default.
	Generate func(s *Store) string

	// Keyword marks _version, _count and _children style elements.
	Keyword bool

	// Uninitialized marks elements without a default: reading them before a write yields 403.
	Uninitialized bool

	Validate Validator

	// DependsOn names a sibling field (same collection entry) that must be set before this one.
	DependsOn string

	// Doc is a one-line description used by element listings.
	Doc string
}

// Check runs the element's validator.
func (e *Element) Check(value string) error {
	if e.Validate == nil {
		return nil
	}
	return e.Validate(value)
}

func keyword(name, value, doc string) *Element {
	return &Element{Name: name, Access: ReadOnly, Default: value, Keyword: true, Doc: doc}
}
