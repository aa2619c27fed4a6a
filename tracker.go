package flux

// depKey identifies a single (component, property) dependency edge.
type depKey struct {
	comp *Component
	prop string
}

// trackFrame accumulates the properties read while a particular implicit
// reaction is being (re)run. The teacher tracks reads per-goroutine with a
// sync.Map-backed DepTracker, because its signals can be read concurrently
// from arbitrary goroutines; this system's single-logical-execution-context
// contract means reads only ever happen on the goroutine currently driving
// the loop, so a simple stack on the Loop itself suffices.
type trackFrame struct {
	reaction *Reaction
	reads    map[depKey]bool
}

// beginTracking pushes a new tracking frame for r. Reads observed via
// Component.Get while this frame is on top are recorded against r.
func (l *Loop) beginTracking(r *Reaction) {
	l.mu.Lock()
	l.trackStack = append(l.trackStack, &trackFrame{reaction: r, reads: make(map[depKey]bool)})
	l.mu.Unlock()
}

// endTracking pops the tracking frame for r and returns the set of
// properties read during it.
func (l *Loop) endTracking(r *Reaction) map[depKey]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.trackStack)
	if n == 0 {
		return nil
	}
	top := l.trackStack[n-1]
	l.trackStack = l.trackStack[:n-1]
	if top.reaction != r {
		// Mismatched push/pop would indicate a reentrant implicit reaction
		// run, which the single-execution-context contract rules out; fall
		// back to returning an empty set rather than corrupting the stack.
		return nil
	}
	return top.reads
}

// trackRead records that comp.prop was read, if an implicit reaction is
// currently being tracked. Nested implicit reactions are not possible under
// the single-execution-context contract, so recording against the top frame
// is always correct — there is exactly one live frame at a time.
func (l *Loop) trackRead(comp *Component, prop string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.trackStack) == 0 {
		return
	}
	top := l.trackStack[len(l.trackStack)-1]
	top.reads[depKey{comp: comp, prop: prop}] = true
}
