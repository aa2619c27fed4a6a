package flux

// PropertyDescriptor is the contract a property type must satisfy to be
// bound onto a component schema (see Schema.Property). The core ships no
// concrete implementations of this interface — the concrete catalogue
// (properties.Int, properties.String, properties.List, ...) lives in the separate
// properties package, kept out of the core per the specification's scope.
type PropertyDescriptor interface {
	// Name returns the property's name, used as both the storage key and
	// the event type for scalar changes.
	Name() string

	// Default returns the property's initial value. Implementations that
	// need a fresh value per instance (e.g. a new empty slice) must not
	// return a shared mutable value from a cached field.
	Default() interface{}

	// Validate coerces/validates a candidate value, returning an error that
	// should be wrapped in *ValidationError by the caller if rejected.
	Validate(value interface{}) (interface{}, error)

	// Settable reports whether binding this descriptor should generate a
	// "set_<name>" action.
	Settable() bool

	// IsArray reports whether this property accepts the insert/remove/
	// replace mutation kinds in addition to set.
	IsArray() bool
}

// dictDescriptor is an optional extension of PropertyDescriptor: a property
// type implements it to opt into the insert/remove/replace mutation kinds
// under map semantics (keyed by string) rather than IsArray's positional
// ones. Most descriptors don't implement it, so it is checked with a type
// assertion at the point of use rather than added to PropertyDescriptor
// itself, the same way io.ReaderFrom is an optional extension of io.Reader.
type dictDescriptor interface {
	IsDict() bool
}

func isDictProperty(desc PropertyDescriptor) bool {
	d, ok := desc.(dictDescriptor)
	return ok && d.IsDict()
}

// Attribute is a read-only, non-observable slot on a component. Unlike a
// Property it never emits events and is never mutated through the
// component's mutation channel; it is either a static value fixed at
// construction or a function computed on each read.
type Attribute struct {
	name  string
	value interface{}
	fn    func() interface{}
}

// NewAttribute declares a static attribute.
func NewAttribute(name string, value interface{}) Attribute {
	return Attribute{name: name, value: value}
}

// NewComputedAttribute declares an attribute computed on each read.
func NewComputedAttribute(name string, fn func() interface{}) Attribute {
	return Attribute{name: name, fn: fn}
}

// Name returns the attribute's name.
func (a Attribute) Name() string { return a.name }

// Value returns the attribute's current value, invoking its compute
// function if one was supplied.
func (a Attribute) Value() interface{} {
	if a.fn != nil {
		return a.fn()
	}
	return a.value
}
