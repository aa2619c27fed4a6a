package flux

// Emitter is a named, callable event source on a component: calling it runs
// the emitter's body to build the event's fields and immediately dispatches
// an event of the emitter's name. Unlike an action, calling an emitter never
// mutates property state and is never queued — it can be invoked from any
// frame, including a reaction body, since emitting an event is not a write
// to frozen state.
type Emitter struct {
	component *Component
	name      string
	fn        EmitterFunc
}

// Name returns the emitter's name, which doubles as the emitted event type.
func (e *Emitter) Name() string { return e.name }

// Fire runs the emitter body and dispatches the resulting event
// synchronously, returning the owning component for chaining.
func (e *Emitter) Fire(args ...interface{}) *Component {
	fields := e.fn(e.component, args...)
	e.component.Emit(e.name, fields)
	return e.component
}
