package flux

import "sync"

// ActionFunc is the body of a declared action. args are positional, as the
// specification requires ("keyword passing is not contractually
// guaranteed"). A returned error is not handed back to the caller: it is
// reported as a UserError through the loop's error handler, and in a nested
// invocation it also aborts the calling action.
type ActionFunc func(c *Component, args ...interface{}) error

// ReactionFunc is the body of a declared reaction. events holds every event
// coalesced since the reaction's last run, in emission order; it is empty
// for implicit reactions (which read state directly instead).
type ReactionFunc func(c *Component, events []Dict)

// EmitterFunc is the body of a declared emitter. Its return value is merged
// into the emitted event's fields.
type EmitterFunc func(c *Component, args ...interface{}) map[string]interface{}

type actionDef struct {
	name string
	fn   ActionFunc
}

type reactionDef struct {
	name  string
	fn    ReactionFunc
	specs []string // connection-string specs; empty means implicit
}

type emitterDef struct {
	name string
	fn   EmitterFunc
}

// Schema is the per-type registration table a systems language substitutes
// for the distilled specification's class-level descriptor protocol: a
// Define callback records {name, kind, default, settable, validator, ...}
// once, the first time DefineSchema is called for a type name, and every
// instance of that type shares the resulting table.
type Schema struct {
	TypeName string

	propertyOrder []string
	properties    map[string]PropertyDescriptor
	attributes    map[string]Attribute
	actions       map[string]actionDef
	reactions     []reactionDef
	emitters      map[string]emitterDef
}

func newSchema(typeName string) *Schema {
	return &Schema{
		TypeName:   typeName,
		properties: make(map[string]PropertyDescriptor),
		attributes: make(map[string]Attribute),
		actions:    make(map[string]actionDef),
		emitters:   make(map[string]emitterDef),
	}
}

// Property declares a property on the schema. Order of declaration is
// preserved for deterministic initial-state emission.
func (s *Schema) Property(p PropertyDescriptor) {
	if _, exists := s.properties[p.Name()]; !exists {
		s.propertyOrder = append(s.propertyOrder, p.Name())
	}
	s.properties[p.Name()] = p
}

// Attribute declares a read-only, non-observable attribute on the schema.
func (s *Schema) Attribute(a Attribute) {
	s.attributes[a.Name()] = a
}

// Action declares a named action on the schema. Binding a property with
// Settable()==true implicitly declares a "set_<name>" action too; calling
// Action with a name already taken by such an auto-generated action
// overrides it.
func (s *Schema) Action(name string, fn ActionFunc) {
	s.actions[name] = actionDef{name: name, fn: fn}
}

// Reaction declares a reaction on the schema. With no specs it is implicit
// (dependencies inferred from property reads); with one or more connection
// strings it is explicit.
func (s *Schema) Reaction(name string, fn ReactionFunc, specs ...string) {
	s.reactions = append(s.reactions, reactionDef{name: name, fn: fn, specs: specs})
}

// Emitter declares a named emitter on the schema.
func (s *Schema) Emitter(name string, fn EmitterFunc) {
	s.emitters[name] = emitterDef{name: name, fn: fn}
}

var (
	schemaRegistryMu sync.Mutex
	schemaRegistry   = make(map[string]*Schema)
)

// DefineSchema returns the cached Schema for typeName, building it by
// invoking define exactly once. Subsequent calls for the same typeName
// return the cached schema and ignore define, so it is safe (and expected)
// to call DefineSchema from every NewComponent call for a given type.
func DefineSchema(typeName string, define func(*Schema)) *Schema {
	schemaRegistryMu.Lock()
	defer schemaRegistryMu.Unlock()

	if s, ok := schemaRegistry[typeName]; ok {
		return s
	}
	s := newSchema(typeName)
	define(s)
	schemaRegistry[typeName] = s
	return s
}
