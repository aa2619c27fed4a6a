package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDict(t *testing.T) {
	t.Run("Get returns source and type through keyed access", func(t *testing.T) {
		c := &Component{id: "widget-1"}
		d := NewDict(c, "clicked", nil)

		src, ok := d.Get("source")
		assert.True(t, ok)
		assert.Equal(t, c, src)

		typ, ok := d.Get("type")
		assert.True(t, ok)
		assert.Equal(t, "clicked", typ)
	})

	t.Run("Get returns false for an absent key", func(t *testing.T) {
		d := NewDict(nil, "tick", nil)
		_, ok := d.Get("missing")
		assert.False(t, ok)
	})

	t.Run("OldValue and NewValue read a scalar set event", func(t *testing.T) {
		d := NewDict(nil, "count", map[string]interface{}{"old_value": 1, "new_value": 2})
		assert.Equal(t, 1, d.OldValue())
		assert.Equal(t, 2, d.NewValue())
	})

	t.Run("MutationKind Index and Objects read an array mutation event", func(t *testing.T) {
		d := NewDict(nil, "items", map[string]interface{}{
			"mutation": MutationInsert,
			"index":    2,
			"objects":  []interface{}{"x"},
		})
		assert.Equal(t, MutationInsert, d.MutationKind())
		assert.Equal(t, 2, d.Index())
		assert.Equal(t, []interface{}{"x"}, d.Objects())
	})

	t.Run("MutationKind is empty for a scalar set event", func(t *testing.T) {
		d := NewDict(nil, "count", map[string]interface{}{"old_value": 1, "new_value": 2})
		assert.Equal(t, Mutation(""), d.MutationKind())
	})

	t.Run("NewDict copies the info map so the caller's copy can be reused", func(t *testing.T) {
		info := map[string]interface{}{"old_value": 1}
		d := NewDict(nil, "count", info)
		info["old_value"] = 99
		assert.Equal(t, 1, d.OldValue())
	})
}
