package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionInvokeOuterIsQueued(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	ret := c.Action("bump").Invoke()
	assert.Same(t, c, ret, "Invoke returns the owning component for chaining")
	assert.Equal(t, 0, c.Get("count"), "an outer invocation does not run synchronously")

	loop.Iter()
	assert.Equal(t, 1, c.Get("count"))
}

func TestActionInvokeNestedRunsSynchronously(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	prev := loop.setFrame(FrameAction)
	c.Action("bump").Invoke()
	loop.restoreFrame(prev)

	assert.Equal(t, 1, c.Get("count"), "a nested invocation (already inside an action frame) runs immediately")
}

func TestActionInvokeFromConstructRunsSynchronously(t *testing.T) {
	loop := NewLoop()
	prev := loop.setFrame(FrameConstruct)
	c := newWidget(loop)
	c.Action("bump").Invoke()
	loop.restoreFrame(prev)

	assert.Equal(t, 1, c.Get("count"))
}

func TestActionInvokeFromReactionIsQueuedForNextRound(t *testing.T) {
	loop := NewLoop()
	c := newWidget(loop)

	prev := loop.setFrame(FrameReaction)
	c.Action("bump").Invoke()
	loop.restoreFrame(prev)

	assert.Equal(t, 0, c.Get("count"), "invocation from a reaction body must not mutate synchronously")
	loop.Iter()
	assert.Equal(t, 1, c.Get("count"))
}

func TestActionErrorBecomesUserError(t *testing.T) {
	var reported FluxError
	loop := NewLoop(WithErrorHandler(func(err FluxError) { reported = err }))
	c := newWidget(loop)

	c.Action("fail").Invoke()
	loop.Iter()

	var userErr *UserError
	assert.ErrorAs(t, reported, &userErr)
	assert.Contains(t, userErr.Member, "fail")
}
