package flux

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var componentIDCounter atomic.Uint64

// binding is one (reaction, structural?, label) entry registered against a
// single event type in a component's dispatch table. label mirrors the
// owning reaction's label so Disconnect can remove bindings by label as well
// as by event type.
type binding struct {
	reaction   *Reaction
	structural bool
	label      string
}

// Component is the base every declared component type embeds or wraps: it
// owns a property/attribute/action/emitter/reaction table (its Schema) and
// the per-instance storage, dispatch table, and mutation channel that
// implement the specification's property/event model.
type Component struct {
	loop   *Loop
	schema *Schema
	id     string

	mu       sync.Mutex
	values   map[string]interface{}
	dispatch map[string][]binding
	owned    map[*Reaction]struct{}
	disposed bool
}

// NewComponent constructs a component of the type described by schema,
// running construction under FrameConstruct so the mutation channel is
// legal to call directly. init maps property names to either a concrete
// initial value (applied synchronously through the mutation channel) or a
// zero-arg callable (registered as an implicit reaction that feeds its
// result into the property's auto-generated "set_<name>" action on every
// recompute).
func NewComponent(loop *Loop, schema *Schema, init map[string]interface{}) *Component {
	c := &Component{
		loop:     loop,
		schema:   schema,
		id:       fmt.Sprintf("%s-%d", schema.TypeName, componentIDCounter.Add(1)),
		values:   make(map[string]interface{}),
		dispatch: make(map[string][]binding),
		owned:    make(map[*Reaction]struct{}),
	}

	prev := loop.setFrame(FrameConstruct)

	for _, name := range schema.propertyOrder {
		c.values[name] = schema.properties[name].Default()
	}

	type deferredInit struct {
		property string
		fn       func() interface{}
	}
	var deferred []deferredInit

	for key, val := range init {
		if _, isProp := schema.properties[key]; !isProp {
			continue
		}
		if fn, ok := val.(func() interface{}); ok {
			deferred = append(deferred, deferredInit{property: key, fn: fn})
			continue
		}
		if err := c.Mutate(key, val, MutationSet, 0); err != nil {
			loop.reportError(wrapComponentError(c, "construct", err))
		}
	}

	loop.restoreFrame(prev)

	for _, name := range schema.propertyOrder {
		v := c.values[name]
		c.emitInternal(name, map[string]interface{}{"old_value": v, "new_value": v})
	}

	for _, d := range deferred {
		property := d.property
		fn := d.fn
		body := func(comp *Component, _ []Dict) {
			comp.Action("set_" + property).Invoke(fn())
		}
		if _, err := newReaction(c, "init_"+property, body, "", nil); err != nil {
			loop.reportError(wrapComponentError(c, "construct", err))
		}
	}

	for _, def := range schema.reactions {
		if _, err := newReaction(c, def.name, def.fn, def.name, def.specs); err != nil {
			loop.reportError(wrapComponentError(c, "construct", err))
		}
	}

	return c
}

func wrapComponentError(c *Component, op string, err error) FluxError {
	if fe, ok := err.(FluxError); ok {
		return fe
	}
	return &InvariantError{Component: c.id, Op: op, Err: err}
}

// ID returns the component's unique, type-prefixed identifier, e.g.
// "counter-3".
func (c *Component) ID() string { return c.id }

// Schema returns the component's type schema.
func (c *Component) Schema() *Schema { return c.schema }

// Disposed reports whether Dispose has already run.
func (c *Component) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Get reads a property's current value, recording an implicit dependency
// if this read happens while an implicit reaction is (re)computing.
func (c *Component) Get(name string) interface{} {
	c.loop.trackRead(c, name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Attribute returns the current value of a declared, non-observable
// attribute.
func (c *Component) Attribute(name string) interface{} {
	if a, ok := c.schema.attributes[name]; ok {
		return a.Value()
	}
	return nil
}

// Action looks up a declared (or auto-generated "set_<property>") action
// by name, returning a bound, callable handle. Panics if the name is not
// declared, mirroring the teacher's fail-fast lookup for undeclared
// members.
func (c *Component) Action(name string) *Action {
	if def, ok := c.schema.actions[name]; ok {
		return &Action{component: c, name: name, fn: def.fn}
	}
	if prop := setterPropertyName(name); prop != "" {
		if desc, ok := c.schema.properties[prop]; ok && desc.Settable() {
			return &Action{component: c, name: name, fn: setterFor(desc)}
		}
	}
	panic(fmt.Sprintf("flux: component %s has no action %q", c.id, name))
}

func setterPropertyName(actionName string) string {
	const prefix = "set_"
	if len(actionName) > len(prefix) && actionName[:len(prefix)] == prefix {
		return actionName[len(prefix):]
	}
	return ""
}

func setterFor(desc PropertyDescriptor) ActionFunc {
	name := desc.Name()
	return func(c *Component, args ...interface{}) error {
		var value interface{}
		if len(args) > 0 {
			value = args[0]
		}
		return c.Mutate(name, value, MutationSet, 0)
	}
}

// Emitter looks up a declared emitter by name, returning a bound, callable
// handle.
func (c *Component) Emitter(name string) *Emitter {
	def, ok := c.schema.emitters[name]
	if !ok {
		panic(fmt.Sprintf("flux: component %s has no emitter %q", c.id, name))
	}
	return &Emitter{component: c, name: name, fn: def.fn}
}

// declaresEvent reports whether name is a statically known event source on
// this component: a property name (its changes are events), a declared
// emitter, or "dispose". Used only to decide whether an unrecognized
// connection-string segment deserves an UnknownEventWarning.
func (c *Component) declaresEvent(name string) bool {
	if name == "dispose" {
		return true
	}
	if _, ok := c.schema.properties[name]; ok {
		return true
	}
	if _, ok := c.schema.emitters[name]; ok {
		return true
	}
	return false
}

func logUnknownEvent(c *Component, eventType string) {
	c.loop.reportError(&UnknownEventWarning{
		Component: c.id,
		EventType: eventType,
		Err:       ErrUnknownEvent,
	})
}

// Mutate is the component's mutation channel: the only legal way to change
// a property's stored value. It is only legal while the loop is in the
// action or construction frame; calling it at any other time is an
// InvariantError. kind selects scalar replacement (MutationSet) or one of
// the insert/remove/replace kinds, which apply positionally for a property
// reporting IsArray() and by key for one satisfying the dict optional
// interface; any other property rejects them with ErrNotArrayProperty.
func (c *Component) Mutate(name string, value interface{}, kind Mutation, index int) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return &InvariantError{Component: c.id, Op: "mutate", Err: ErrDisposed}
	}
	c.mu.Unlock()

	frame := c.loop.Frame()
	if frame != FrameAction && frame != FrameConstruct {
		return &InvariantError{Component: c.id, Op: "mutate", Err: ErrMutationOutsideAction}
	}

	desc, ok := c.schema.properties[name]
	if !ok {
		return fmt.Errorf("flux: component %s has no property %q", c.id, name)
	}

	switch kind {
	case MutationSet, "":
		coerced, err := desc.Validate(value)
		if err != nil {
			return &ValidationError{Property: name, Value: value, Err: err}
		}
		c.mu.Lock()
		old := c.values[name]
		c.values[name] = coerced
		c.mu.Unlock()
		c.emitInternal(name, map[string]interface{}{"old_value": old, "new_value": coerced})
		return nil

	case MutationInsert, MutationRemove, MutationReplace:
		switch {
		case desc.IsArray():
			c.mu.Lock()
			cur, _ := c.values[name].([]interface{})
			next, objects, err := applyArrayMutation(cur, kind, index, value)
			if err != nil {
				c.mu.Unlock()
				return err
			}
			c.values[name] = next
			c.mu.Unlock()
			c.emitInternal(name, map[string]interface{}{"mutation": kind, "index": index, "objects": objects})
			return nil

		case isDictProperty(desc):
			c.mu.Lock()
			cur, _ := c.values[name].(map[string]interface{})
			next, objects, err := applyDictMutation(cur, kind, value)
			if err != nil {
				c.mu.Unlock()
				return err
			}
			c.values[name] = next
			c.mu.Unlock()
			c.emitInternal(name, map[string]interface{}{"mutation": kind, "objects": objects})
			return nil

		default:
			return &InvariantError{Component: c.id, Op: "mutate", Err: ErrNotArrayProperty}
		}

	default:
		return fmt.Errorf("flux: unknown mutation kind %q", kind)
	}
}

// Emit dispatches a custom event of the given type with the given fields.
// Unlike Mutate, Emit is not restricted to the action frame: emitters and
// reaction bodies may both call it, since emitting does not touch property
// storage.
func (c *Component) Emit(eventType string, info map[string]interface{}) {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return
	}
	c.emitInternal(eventType, info)
}

func (c *Component) emitInternal(eventType string, info map[string]interface{}) {
	d := NewDict(c, eventType, info)
	c.dispatchEvent(d)
}

func (c *Component) dispatchEvent(d Dict) {
	c.loop.recordEvent(d)

	c.mu.Lock()
	bindings := append([]binding(nil), c.dispatch[d.Type]...)
	c.mu.Unlock()

	for _, b := range bindings {
		if b.structural {
			b.reaction.markReconnect()
			c.loop.AddReactionEvent(b.reaction, nil)
			continue
		}
		c.loop.AddReactionEvent(b.reaction, &d)
	}
}

// RegisterReaction adds r to the set of reactions listening for eventType.
// structural bindings never deliver the event; they only flag r for
// reconnection the next time it runs.
func (c *Component) RegisterReaction(r *Reaction, eventType string, structural bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.dispatch[eventType] = append(c.dispatch[eventType], binding{reaction: r, structural: structural, label: r.label})
}

// UnregisterReaction removes the matching (r, structural) binding for
// eventType, if present.
func (c *Component) UnregisterReaction(r *Reaction, eventType string, structural bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bs := c.dispatch[eventType]
	if len(bs) == 0 {
		return
	}
	out := bs[:0]
	for _, b := range bs {
		if b.reaction == r && b.structural == structural {
			continue
		}
		out = append(out, b)
	}
	c.dispatch[eventType] = out
}

// Disconnect removes every binding whose event type equals typeOrLabel, or
// whose owning reaction's label equals typeOrLabel, a manual escape hatch
// for components that want to drop connections without disposing the
// reactions on the other end.
func (c *Component) Disconnect(typeOrLabel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dispatch[typeOrLabel]; ok {
		delete(c.dispatch, typeOrLabel)
	}
	for eventType, bs := range c.dispatch {
		out := bs[:0]
		for _, b := range bs {
			if b.label == typeOrLabel {
				continue
			}
			out = append(out, b)
		}
		if len(out) == 0 {
			delete(c.dispatch, eventType)
		} else {
			c.dispatch[eventType] = out
		}
	}
}

// own registers r as owned by this component: it will be disposed when
// this component is disposed.
func (c *Component) own(r *Reaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.owned[r] = struct{}{}
}

// Dispose disposes every reaction this component owns, then marks the
// component disposed and drops its dispatch table, then emits a final
// "dispose" event to the listeners that were registered for it. Afterwards
// Emit is a no-op and Mutate returns an InvariantError wrapping ErrDisposed.
// Idempotent.
func (c *Component) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	owned := make([]*Reaction, 0, len(c.owned))
	for r := range c.owned {
		owned = append(owned, r)
	}
	c.owned = nil
	c.mu.Unlock()

	for _, r := range owned {
		r.Dispose()
	}

	c.mu.Lock()
	c.disposed = true
	finalListeners := c.dispatch["dispose"]
	c.dispatch = nil
	c.mu.Unlock()

	d := NewDict(c, "dispose", nil)
	c.loop.recordEvent(d)
	for _, b := range finalListeners {
		if b.structural {
			b.reaction.markReconnect()
			c.loop.AddReactionEvent(b.reaction, nil)
			continue
		}
		c.loop.AddReactionEvent(b.reaction, &d)
	}
}
