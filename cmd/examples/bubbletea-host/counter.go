package main

import (
	flux "github.com/cerebralia/fluxcore"
	"github.com/cerebralia/fluxcore/properties"
)

// counterSchema declares a small component with a count, two derived
// properties (doubled, which is read-only, and is_even) kept current by an
// explicit reaction, and a trailing history of the last five counts.
var counterSchema = flux.DefineSchema("counter", func(s *flux.Schema) {
	s.Property(properties.Int("count", 0))
	s.Property(properties.ReadOnlyInt("doubled", 0))
	s.Property(properties.Bool("is_even", true))
	s.Property(properties.List("history"))

	s.Action("increment", func(c *flux.Component, args ...interface{}) error {
		return bumpCount(c, 1)
	})
	s.Action("decrement", func(c *flux.Component, args ...interface{}) error {
		return bumpCount(c, -1)
	})
	s.Action("reset", func(c *flux.Component, args ...interface{}) error {
		if err := c.Mutate("count", 0, flux.MutationSet, 0); err != nil {
			return err
		}
		return c.Mutate("history", []interface{}{}, flux.MutationSet, 0)
	})

	// recompute_derived is invoked from the "on_count_change" reaction
	// below rather than called directly from increment/decrement/reset, so
	// the derived properties stay correct regardless of which action moved
	// count.
	s.Action("recompute_derived", func(c *flux.Component, args ...interface{}) error {
		cur := c.Get("count").(int)
		if err := c.Mutate("doubled", cur*2, flux.MutationSet, 0); err != nil {
			return err
		}
		return c.Mutate("is_even", cur%2 == 0, flux.MutationSet, 0)
	})

	s.Reaction("on_count_change", func(c *flux.Component, events []flux.Dict) {
		c.Action("recompute_derived").Invoke()
	}, "count")
})

func bumpCount(c *flux.Component, delta int) error {
	cur := c.Get("count").(int)
	next := cur + delta
	if err := c.Mutate("count", next, flux.MutationSet, 0); err != nil {
		return err
	}
	hist, _ := c.Get("history").([]interface{})
	hist = append(hist, next)
	if len(hist) > 5 {
		hist = hist[len(hist)-5:]
	}
	return c.Mutate("history", hist, flux.MutationSet, 0)
}

func newCounter(loop *flux.Loop) *flux.Component {
	return flux.NewComponent(loop, counterSchema, map[string]interface{}{
		"count": 0,
	})
}
