package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewComponentAppliesDefaultsAndInit(t *testing.T) {
	loop := NewLoop()
	c := NewComponent(loop, widgetSchema, map[string]interface{}{"count": 5})

	assert.Equal(t, 5, c.Get("count"))
	assert.Equal(t, "", c.Get("label"))
	assert.Contains(t, c.ID(), "widget-")
}

func TestNewComponentDeferredInitBecomesAReaction(t *testing.T) {
	loop := NewLoop()
	c := NewComponent(loop, widgetSchema, map[string]interface{}{
		"count": 3,
		"label": func() interface{} { return "derived" },
	})

	// The deferred init value is applied via an implicit reaction's
	// "set_label" action invocation, enqueued for the next round.
	loop.Iter()
	assert.Equal(t, "derived", c.Get("label"))
}

func TestComponentGetAndAttribute(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)
	assert.Equal(t, 0, c.Get("count"))
	assert.Nil(t, c.Attribute("nonexistent"))
}

func TestComponentActionLookup(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	t.Run("declared action", func(t *testing.T) {
		a := c.Action("bump")
		assert.Equal(t, "bump", a.Name())
	})

	t.Run("auto-generated setter for a settable property", func(t *testing.T) {
		a := c.Action("set_count")
		assert.Equal(t, "set_count", a.Name())
	})

	t.Run("panics for an undeclared name", func(t *testing.T) {
		assert.Panics(t, func() { c.Action("nonexistent") })
	})

	t.Run("panics for set_ on a non-settable property", func(t *testing.T) {
		assert.Panics(t, func() { c.Action("set_doubled") })
	})
}

func TestComponentEmitterLookup(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	assert.NotPanics(t, func() { c.Emitter("ping") })
	assert.Panics(t, func() { c.Emitter("nonexistent") })
}

func TestComponentMutateRequiresActionOrConstructFrame(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	err := c.Mutate("count", 1, MutationSet, 0)
	var invErr *InvariantError
	assert.ErrorAs(t, err, &invErr)
	assert.ErrorIs(t, err, ErrMutationOutsideAction)
}

func TestComponentMutateValidationFailure(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	prev := loop.setFrame(FrameAction)
	err := c.Mutate("count", "not-an-int", MutationSet, 0)
	loop.restoreFrame(prev)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, 0, c.Get("count"), "failed validation must not change the stored value")
}

func TestComponentMutateArrayRequiresArrayProperty(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	prev := loop.setFrame(FrameAction)
	err := c.Mutate("count", 1, MutationInsert, 0)
	loop.restoreFrame(prev)

	assert.ErrorIs(t, err, ErrNotArrayProperty)
}

func TestComponentMutateDictInsertReplaceRemove(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	prev := loop.setFrame(FrameAction)
	err := c.Mutate("tags", map[string]interface{}{"color": "red"}, MutationInsert, 0)
	loop.restoreFrame(prev)
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"color": "red"}, c.Get("tags"))

	prev = loop.setFrame(FrameAction)
	err = c.Mutate("tags", map[string]interface{}{"color": "blue"}, MutationReplace, 0)
	loop.restoreFrame(prev)
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"color": "blue"}, c.Get("tags"))

	prev = loop.setFrame(FrameAction)
	err = c.Mutate("tags", "color", MutationRemove, 0)
	loop.restoreFrame(prev)
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, c.Get("tags"))
}

func TestComponentMutateDictEmitsEventWithoutIndex(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	var seen Dict
	_, err := newReaction(c, "watch_tags", func(c *Component, events []Dict) {
		if len(events) > 0 {
			seen = events[len(events)-1]
		}
	}, "", []string{"tags"})
	assert.NoError(t, err)

	prev := loop.setFrame(FrameAction)
	err = c.Mutate("tags", map[string]interface{}{"a": 1}, MutationInsert, 0)
	loop.restoreFrame(prev)
	assert.NoError(t, err)
	loop.Iter()

	assert.Equal(t, MutationInsert, seen.MutationKind())
	assert.Equal(t, map[string]interface{}{"a": 1}, seen.Objects())
	_, hasIndex := seen.Get("index")
	assert.False(t, hasIndex, "dict mutations are keyed, not positional")
}

func TestComponentDisposeCascadesToOwnedReactionsAndEmitsFinalEvent(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	// A reaction c owns on itself is torn down (and unbound) as part of its
	// own Dispose, before the final "dispose" event is captured.
	ownRuns := 0
	ownReaction, err := newReaction(c, "watch_self_dispose", func(c *Component, events []Dict) {
		ownRuns++
	}, "", []string{"dispose"})
	assert.NoError(t, err)

	// A reaction owned by a different component, connected through a
	// component-typed property, survives c's own reaction teardown and
	// still receives the final event.
	watcher := newWidget(loop)
	prev := loop.setFrame(FrameAction)
	err = watcher.Mutate("child", c, MutationSet, 0)
	loop.restoreFrame(prev)
	assert.NoError(t, err)

	var seenDispose bool
	_, err = newReaction(watcher, "watch_child_dispose", func(c *Component, events []Dict) {
		for _, e := range events {
			if e.Type == "dispose" {
				seenDispose = true
			}
		}
	}, "", []string{"child.dispose"})
	assert.NoError(t, err)

	c.Dispose()
	loop.Iter()

	assert.True(t, c.Disposed())
	assert.True(t, ownReaction.Disposed(), "reactions c owns on itself are disposed by its own Dispose")
	assert.Equal(t, 0, ownRuns, "a reaction owned by the disposing component never sees its own dispose event")
	assert.True(t, seenDispose, "a reaction owned elsewhere, connected through a property, still receives the final event")
}

func TestComponentDisposeIsIdempotent(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)
	c.Dispose()
	assert.NotPanics(t, func() { c.Dispose() })
}

func TestComponentEmitIsNoOpAfterDispose(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)
	c.Dispose()
	assert.NotPanics(t, func() { c.Emit("ping", nil) })
}

func TestComponentDisconnectRemovesBindings(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	runs := 0
	_, err := newReaction(c, "watch_count", func(c *Component, events []Dict) {
		runs += len(events)
	}, "", []string{"count"})
	assert.NoError(t, err)

	c.Disconnect("count")

	prev := loop.setFrame(FrameAction)
	_ = c.Mutate("count", 1, MutationSet, 0)
	loop.restoreFrame(prev)
	loop.Iter()

	assert.Equal(t, 0, runs, "disconnected event type delivers nothing further")
}

func TestComponentDisconnectRemovesBindingsByLabel(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	runs := 0
	_, err := newReaction(c, "watch_count", func(c *Component, events []Dict) {
		runs += len(events)
	}, "count_watcher", []string{"count"})
	assert.NoError(t, err)

	c.Disconnect("count_watcher")

	prev := loop.setFrame(FrameAction)
	_ = c.Mutate("count", 1, MutationSet, 0)
	loop.restoreFrame(prev)
	loop.Iter()

	assert.Equal(t, 0, runs, "disconnecting by label removes the binding even though the event type is untouched")
}
