package flux

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// FrameKind identifies what the loop is currently doing, which governs
// whether a property mutation or an outer action invocation is legal right
// now (invariant 1 and 2 of the specification).
type FrameKind int

const (
	// FrameNone means no action, reaction, or construction is in progress.
	FrameNone FrameKind = iota
	// FrameAction means an action body is currently executing (possibly
	// nested inside another action).
	FrameAction
	// FrameReaction means a reaction body is currently executing; property
	// values must be observed constant for the whole phase.
	FrameReaction
	// FrameConstruct means a component's constructor is assembling its
	// initial state; direct mutation is allowed here too.
	FrameConstruct
)

// HostScheduler is the minimal primitive a host asynchronous runtime must
// provide for the loop to make progress outside of explicit Iter() calls.
// The loop calls Schedule at most once per pending round, whenever it
// transitions from empty to non-empty.
type HostScheduler interface {
	Schedule(fn func())
}

// HostSchedulerFunc adapts a plain function to HostScheduler.
type HostSchedulerFunc func(fn func())

func (f HostSchedulerFunc) Schedule(fn func()) { f(fn) }

type pendingAction struct {
	name string
	run  func()
}

type pendingReaction struct {
	reaction *Reaction
	label    string
	seq      uint64
}

// LoopOption configures a Loop at construction, following the functional
// options idiom the teacher uses for its runner configuration.
type LoopOption func(*Loop)

// WithFairnessLimit bounds how many rounds Iter will drive in a single call
// before yielding back to the caller, preventing an unbounded cascade of
// self-scheduling reactions from blocking forever. Default: 10000.
func WithFairnessLimit(n int) LoopOption {
	return func(l *Loop) { l.fairnessLimit = n }
}

// WithErrorHandler installs the hook invoked for every recovered
// FluxError. The default prints to stderr, matching the teacher's
// unhandled-panic fallback in pkg/core/signal.go.
func WithErrorHandler(h func(FluxError)) LoopOption {
	return func(l *Loop) { l.errorHandler = h }
}

// Observer receives scheduling telemetry as the loop runs. The monitoring
// package's Metrics type implements this so a Loop can be wired straight
// into a Prometheus registry via WithObserver.
type Observer interface {
	RecordRound()
	RecordAction(name string)
	RecordReaction(name string, d time.Duration)
	RecordReconnect(name string)
	RecordError(kind string)
}

// WithObserver installs a scheduling telemetry sink. Nil by default, in
// which case observation calls are skipped entirely.
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) { l.observer = o }
}

// WithEventTap installs a hook called with every event dispatched by any
// component on this loop, in emission order, regardless of whether a
// reaction is connected to it. Intended for read-only introspection (e.g.
// the devtools package's recorder); it runs synchronously on the emitting
// call's goroutine, so it must not block or mutate.
func WithEventTap(fn func(Dict)) LoopOption {
	return func(l *Loop) { l.tap = fn }
}

// Loop is the cooperative scheduler that orders pending actions and
// reactions into deterministic rounds. All queue access is guarded by a
// mutex only to allow a host to hand off work from a different goroutine
// than the one driving Iter; the actual draining of a round runs on a
// single logical execution context, with no locks held during user code.
type Loop struct {
	mu sync.Mutex

	actions    []pendingAction
	reactions  []pendingReaction
	enqueued   map[*Reaction]bool
	callLater  []func()
	trackStack []*trackFrame

	seq uint64

	frame   FrameKind
	running bool // true while Iter is actively draining (re-entrancy guard)

	host          HostScheduler
	fairnessLimit int
	errorHandler  func(FluxError)
	observer      Observer
	tap           func(Dict)
}

// NewLoop creates a Loop ready to accept action invocations and reaction
// subscriptions. It has no host scheduler until Integrate is called; Iter
// can still be driven manually (e.g. by tests).
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		enqueued:      make(map[*Reaction]bool),
		fairnessLimit: 10000,
	}
	for _, o := range opts {
		o(l)
	}
	if l.errorHandler == nil {
		l.errorHandler = defaultErrorHandler
	}
	return l
}

func defaultErrorHandler(err FluxError) {
	fmt.Fprintf(os.Stderr, "flux: %v\n", err)
}

// Integrate attaches a host scheduler. The loop calls host.Schedule exactly
// once per transition from empty to non-empty queues.
func (l *Loop) Integrate(host HostScheduler) {
	l.mu.Lock()
	l.host = host
	l.mu.Unlock()
}

// Frame reports what the loop is currently doing. Exported so the
// component base and property descriptors can decide whether a mutation is
// legal without the Loop exposing its queues.
func (l *Loop) Frame() FrameKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

func (l *Loop) setFrame(k FrameKind) FrameKind {
	l.mu.Lock()
	prev := l.frame
	l.frame = k
	l.mu.Unlock()
	return prev
}

func (l *Loop) restoreFrame(prev FrameKind) {
	l.mu.Lock()
	l.frame = prev
	l.mu.Unlock()
}

// reportError funnels a FluxError through the configured handler, never
// panicking itself.
func (l *Loop) reportError(err FluxError) {
	l.mu.Lock()
	h := l.errorHandler
	obs := l.observer
	l.mu.Unlock()
	if obs != nil {
		obs.RecordError(err.Kind().String())
	}
	if h != nil {
		h(err)
	}
}

// CallLater enqueues a zero-argument callable to run once, after the
// current round's reaction phase ends (before the next round, if any, is
// scheduled).
func (l *Loop) CallLater(fn func()) {
	l.mu.Lock()
	l.callLater = append(l.callLater, fn)
	l.mu.Unlock()
	// call_later alone never wakes a host scheduler: it rides whatever round
	// is already in progress, or the next one triggered by an actual action
	// or reaction enqueue.
}

// AddActionInvocation enqueues a named action invocation to run in the next
// action phase. name is used only for diagnostics (UserError context).
func (l *Loop) AddActionInvocation(name string, run func()) {
	l.mu.Lock()
	wasEmpty := len(l.actions) == 0 && len(l.reactions) == 0
	l.actions = append(l.actions, pendingAction{name: name, run: run})
	host := l.host
	l.mu.Unlock()
	if wasEmpty && host != nil {
		host.Schedule(func() { l.Iter() })
	}
}

// AddReactionEvent enqueues a (reaction, event) delivery, or marks a
// reaction for reconnection-only delivery when event is nil. Multiple
// events for the same reaction accumulated before it next runs are
// coalesced into a single invocation, in emission order (handled by
// Reaction.buffer).
func (l *Loop) AddReactionEvent(r *Reaction, event *Dict) {
	if event != nil {
		r.buffer(*event)
	}
	l.mu.Lock()
	wasEmpty := len(l.actions) == 0 && len(l.reactions) == 0
	already := l.enqueued[r]
	if !already {
		l.seq++
		l.reactions = append(l.reactions, pendingReaction{reaction: r, label: r.label, seq: l.seq})
		l.enqueued[r] = true
	}
	host := l.host
	l.mu.Unlock()
	// Reconnection (for a structural trigger) and the body call (for a real
	// event) both happen later, in Reaction.run, so the spec walk and the
	// fn invocation always see the most current property values rather than
	// a stale snapshot taken at enqueue time.
	if wasEmpty && host != nil {
		host.Schedule(func() { l.Iter() })
	}
}

// ProcessActions drains the action queue once, running each action
// synchronously under FrameAction. Panics from user action bodies are
// recovered and reported as UserError; the batch continues with the next
// action.
func (l *Loop) ProcessActions() {
	for {
		l.mu.Lock()
		if len(l.actions) == 0 {
			l.mu.Unlock()
			return
		}
		next := l.actions[0]
		l.actions = l.actions[1:]
		l.mu.Unlock()

		l.runAction(next)
	}
}

func (l *Loop) runAction(p pendingAction) {
	prev := l.setFrame(FrameAction)
	defer l.restoreFrame(prev)

	defer func() {
		l.mu.Lock()
		obs := l.observer
		l.mu.Unlock()
		if obs != nil {
			obs.RecordAction(p.name)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			l.reportError(&UserError{Member: p.name, Err: asError(r)})
		}
	}()
	p.run()
}

// ProcessReactions drains the reaction queue once: it snapshots the
// currently pending reactions, sorts them by (label, insertion sequence),
// and runs each in turn under FrameReaction. Reactions scheduled while this
// snapshot is running are not included in it (fairness rule): they will run
// in a later round.
func (l *Loop) ProcessReactions() {
	l.mu.Lock()
	batch := l.reactions
	l.reactions = nil
	for _, p := range batch {
		delete(l.enqueued, p.reaction)
	}
	l.mu.Unlock()

	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].label != batch[j].label {
			return batch[i].label < batch[j].label
		}
		return batch[i].seq < batch[j].seq
	})

	prev := l.setFrame(FrameReaction)
	defer l.restoreFrame(prev)

	for _, p := range batch {
		l.runReaction(p.reaction)
	}
}

func (l *Loop) runReaction(r *Reaction) {
	start := time.Now()
	defer func() {
		l.mu.Lock()
		obs := l.observer
		l.mu.Unlock()
		if obs != nil {
			obs.RecordReaction(r.name, time.Since(start))
		}
	}()

	defer func() {
		if rec := recover(); rec != nil {
			l.reportError(&UserError{Component: r.ownerID(), Member: r.name, Err: asError(rec)})
		}
	}()
	reconnected := r.run(l)
	if reconnected {
		l.mu.Lock()
		obs := l.observer
		l.mu.Unlock()
		if obs != nil {
			obs.RecordReconnect(r.name)
		}
	}
}

// Iter drives full rounds — drain actions, run reactions, run call_laters,
// repeat while any queue is non-empty — until the queues are empty or the
// fairness limit is hit. It is safe to call re-entrantly (e.g. from a
// CallLater scheduled mid-round); the inner call simply returns immediately
// since a round is already being driven higher up the stack.
func (l *Loop) Iter() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for i := 0; i < l.fairnessLimit; i++ {
		l.mu.Lock()
		obs := l.observer
		l.mu.Unlock()
		if obs != nil {
			obs.RecordRound()
		}

		l.ProcessActions()
		l.ProcessReactions()

		l.mu.Lock()
		callLaters := l.callLater
		l.callLater = nil
		l.mu.Unlock()
		for _, fn := range callLaters {
			func() {
				defer func() {
					if r := recover(); r != nil {
						l.reportError(&UserError{Member: "call_later", Err: asError(r)})
					}
				}()
				fn()
			}()
		}

		if l.isEmpty() {
			return
		}
	}
}

func (l *Loop) isEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions) == 0 && len(l.reactions) == 0 && len(l.callLater) == 0
}

// recordEvent forwards d to the installed event tap, if any. Called by
// Component.dispatchEvent for every event, connected or not.
func (l *Loop) recordEvent(d Dict) {
	l.mu.Lock()
	tap := l.tap
	l.mu.Unlock()
	if tap != nil {
		tap(d)
	}
}

// QueueDepths reports the current size of the action and reaction queues,
// primarily for the monitoring package's gauges and for tests asserting on
// scheduling behavior.
func (l *Loop) QueueDepths() (actions, reactions int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions), len(l.reactions)
}
