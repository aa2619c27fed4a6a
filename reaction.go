package flux

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var reactionIDCounter atomic.Uint64

// Reaction is a unit of derived work connected to one or more event
// sources, either explicitly (by connection string) or implicitly (by
// reading properties during its own body). Its body runs only during the
// loop's reaction phase, against frozen property state.
type Reaction struct {
	id    string
	name  string
	label string
	owner *Component
	fn    ReactionFunc

	implicit bool
	specs    []parsedSpec

	mu            sync.Mutex
	disposed      bool
	pendingEvents []Dict
	reconnect     bool

	userBindings   []endpoint
	structBindings []structEndpoint
	implicitReads  map[depKey]bool
}

// newReaction builds and binds a reaction owned by owner. With no specs it
// is implicit and is run once immediately to seed its dependency set,
// matching the specification's "invoked once immediately on creation"
// rule; with specs it is explicit and is bound immediately but not run
// until a terminal event arrives.
func newReaction(owner *Component, name string, fn ReactionFunc, label string, specRaws []string) (*Reaction, error) {
	if label == "" {
		label = name
	}
	r := &Reaction{
		id:    newReactionID(),
		name:  name,
		label: label,
		owner: owner,
		fn:    fn,
	}

	if len(specRaws) == 0 {
		r.implicit = true
		owner.loop.beginTracking(r)
		func() {
			defer func() { recover() }()
			r.fn(r.owner, nil)
		}()
		reads := owner.loop.endTracking(r)
		r.rebindImplicit(reads)
		owner.own(r)
		return r, nil
	}

	specs := make([]parsedSpec, 0, len(specRaws))
	for _, raw := range specRaws {
		spec, err := parseConnectionString(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	r.specs = specs
	if err := r.bindAll(); err != nil {
		return nil, err
	}
	owner.own(r)
	return r, nil
}

func newReactionID() string {
	return fmt.Sprintf("reaction-%d", reactionIDCounter.Add(1))
}

func (r *Reaction) buffer(event Dict) {
	r.mu.Lock()
	r.pendingEvents = append(r.pendingEvents, event)
	r.mu.Unlock()
}

func (r *Reaction) needsReconnect() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconnect
}

func (r *Reaction) markReconnect() {
	r.mu.Lock()
	r.reconnect = true
	r.mu.Unlock()
}

func (r *Reaction) ownerID() string {
	if r.owner == nil {
		return ""
	}
	return r.owner.ID()
}

// run executes one scheduled turn of the reaction: for an implicit
// reaction this always re-runs the body under read tracking and rebinds to
// whatever it read; for an explicit reaction it first resolves any pending
// reconnection (silently, no body call) and then runs the body only if at
// least one real event was buffered, matching the "reconnection alone does
// not invoke the reaction" rule.
func (r *Reaction) run(l *Loop) (reconnected bool) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return false
	}
	events := r.pendingEvents
	r.pendingEvents = nil
	needsReconnect := r.reconnect
	r.reconnect = false
	r.mu.Unlock()

	if r.implicit {
		l.beginTracking(r)
		r.fn(r.owner, nil)
		reads := l.endTracking(r)
		r.rebindImplicit(reads)
		return false
	}

	if needsReconnect {
		r.unbindAll()
		if err := r.bindAll(); err != nil {
			if fe, ok := err.(FluxError); ok {
				l.reportError(fe)
			} else {
				l.reportError(&ConnectionError{Spec: r.name, Err: err})
			}
		}
	}
	if len(events) > 0 {
		r.fn(r.owner, events)
	}
	return needsReconnect
}

func (r *Reaction) bindAll() error {
	for _, spec := range r.specs {
		wr, err := spec.walk(r.owner)
		if err != nil {
			return err
		}
		for _, ep := range wr.endpoints {
			ep.comp.RegisterReaction(r, ep.eventType, false)
			r.userBindings = append(r.userBindings, ep)
		}
		for _, sp := range wr.structural {
			sp.comp.RegisterReaction(r, sp.prop, true)
			r.structBindings = append(r.structBindings, sp)
		}
	}
	return nil
}

func (r *Reaction) unbindAll() {
	for _, ep := range r.userBindings {
		ep.comp.UnregisterReaction(r, ep.eventType, false)
	}
	for _, sp := range r.structBindings {
		sp.comp.UnregisterReaction(r, sp.prop, true)
	}
	r.userBindings = nil
	r.structBindings = nil
}

func (r *Reaction) rebindImplicit(reads map[depKey]bool) {
	for k := range r.implicitReads {
		if !reads[k] {
			k.comp.UnregisterReaction(r, k.prop, false)
		}
	}
	for k := range reads {
		if !r.implicitReads[k] {
			k.comp.RegisterReaction(r, k.prop, false)
		}
	}
	r.implicitReads = reads
}

// Dispose detaches the reaction from every component it is connected to.
// Idempotent.
func (r *Reaction) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	r.mu.Unlock()

	r.unbindAll()
	for k := range r.implicitReads {
		k.comp.UnregisterReaction(r, k.prop, false)
	}
	r.implicitReads = nil
}

// Disposed reports whether Dispose has already run.
func (r *Reaction) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}
