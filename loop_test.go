package flux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeScheduler struct {
	calls int
	runs  []func()
}

func (f *fakeScheduler) Schedule(fn func()) {
	f.calls++
	f.runs = append(f.runs, fn)
}

func TestLoopFrameDefaultsToNone(t *testing.T) {
	loop := NewLoop()
	assert.Equal(t, FrameNone, loop.Frame())
}

func TestLoopSetAndRestoreFrame(t *testing.T) {
	loop := NewLoop()
	prev := loop.setFrame(FrameAction)
	assert.Equal(t, FrameNone, prev)
	assert.Equal(t, FrameAction, loop.Frame())
	loop.restoreFrame(prev)
	assert.Equal(t, FrameNone, loop.Frame())
}

func TestLoopAddActionInvocationSchedulesOnlyOnEmptyToNonEmptyTransition(t *testing.T) {
	loop := NewLoop()
	sched := &fakeScheduler{}
	loop.Integrate(sched)

	loop.AddActionInvocation("a", func() {})
	loop.AddActionInvocation("b", func() {})

	assert.Equal(t, 1, sched.calls, "a second enqueue while the queue is already non-empty must not re-schedule")
}

func TestLoopProcessActionsRunsInFIFOOrder(t *testing.T) {
	loop := NewLoop()
	var order []string
	loop.AddActionInvocation("a", func() { order = append(order, "a") })
	loop.AddActionInvocation("b", func() { order = append(order, "b") })

	loop.ProcessActions()
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestLoopProcessActionsRecoversPanics(t *testing.T) {
	var reported FluxError
	loop := NewLoop(WithErrorHandler(func(err FluxError) { reported = err }))

	ran := false
	loop.AddActionInvocation("boom", func() { panic("kaboom") })
	loop.AddActionInvocation("after", func() { ran = true })

	loop.ProcessActions()

	assert.True(t, ran, "a panicking action must not stop the rest of the batch")
	var userErr *UserError
	assert.ErrorAs(t, reported, &userErr)
}

func TestLoopProcessReactionsOrdersByLabelThenSequence(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	var order []string
	rb, _ := newReaction(c, "b", func(c *Component, events []Dict) { order = append(order, "b") }, "b", []string{"count"})
	ra, _ := newReaction(c, "a", func(c *Component, events []Dict) { order = append(order, "a") }, "a", []string{"count"})

	d := NewDict(c, "count", nil)
	loop.AddReactionEvent(rb, &d)
	loop.AddReactionEvent(ra, &d)

	loop.ProcessReactions()
	assert.Equal(t, []string{"a", "b"}, order, "reactions run in label order regardless of enqueue order")
}

func TestLoopAddReactionEventCoalescesMultipleEventsIntoOneRun(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	var deliveries [][]Dict
	r, err := newReaction(c, "watch", func(c *Component, events []Dict) {
		deliveries = append(deliveries, events)
	}, "", []string{"count"})
	assert.NoError(t, err)

	d1 := NewDict(c, "count", map[string]interface{}{"new_value": 1})
	d2 := NewDict(c, "count", map[string]interface{}{"new_value": 2})
	loop.AddReactionEvent(r, &d1)
	loop.AddReactionEvent(r, &d2)

	loop.ProcessReactions()
	assert.Len(t, deliveries, 1, "two events enqueued before the reaction runs coalesce into one call")
	assert.Len(t, deliveries[0], 2)
}

func TestLoopCallLaterRunsAfterReactionPhase(t *testing.T) {
	loop := NewLoop()
	ranAfter := false
	loop.AddActionInvocation("noop", func() {})
	loop.CallLater(func() { ranAfter = true })

	loop.Iter()
	assert.True(t, ranAfter)
}

func TestLoopIterIsReentrantSafe(t *testing.T) {
	loop := NewLoop()
	loop.AddActionInvocation("outer", func() {
		loop.CallLater(func() {
			// Iter called again mid-round (e.g. from a host callback) must
			// return immediately rather than double-drain.
			loop.Iter()
		})
	})
	assert.NotPanics(t, func() { loop.Iter() })
}

func TestLoopQueueDepths(t *testing.T) {
	loop := NewLoop()
	loop.AddActionInvocation("a", func() {})
	actions, reactions := loop.QueueDepths()
	assert.Equal(t, 1, actions)
	assert.Equal(t, 0, reactions)
}

type fakeObserver struct {
	rounds      int
	actions     []string
	reactions   []string
	reconnects  []string
	errors      []string
}

func (o *fakeObserver) RecordRound()                              { o.rounds++ }
func (o *fakeObserver) RecordAction(name string)                  { o.actions = append(o.actions, name) }
func (o *fakeObserver) RecordReaction(name string, d time.Duration) { o.reactions = append(o.reactions, name) }
func (o *fakeObserver) RecordReconnect(name string)                { o.reconnects = append(o.reconnects, name) }
func (o *fakeObserver) RecordError(kind string)                    { o.errors = append(o.errors, kind) }

func TestLoopObserverReceivesSchedulingTelemetry(t *testing.T) {
	obs := &fakeObserver{}
	loop := NewLoop(WithObserver(obs))
	c := newWidget(loop)

	_, err := newReaction(c, "watch", func(c *Component, events []Dict) {}, "", []string{"count"})
	assert.NoError(t, err)

	c.Action("bump").Invoke()
	loop.Iter()

	assert.GreaterOrEqual(t, obs.rounds, 1)
	assert.Contains(t, obs.actions, "widget.bump")
	assert.Contains(t, obs.reactions, "watch")
}

func TestLoopEventTapObservesEveryDispatchedEvent(t *testing.T) {
	var seen []string
	loop := NewLoop(WithEventTap(func(d Dict) { seen = append(seen, d.Type) }))
	c := newWidget(loop)

	c.Action("bump").Invoke()
	loop.Iter()

	assert.Contains(t, seen, "count")
}
