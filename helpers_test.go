package flux

import "fmt"

// Minimal PropertyDescriptor implementations for core package tests. The
// concrete catalogue lives in the separate properties package, which
// cannot be imported here without an import cycle (it imports flux).

type intProp struct {
	name     string
	def      int
	settable bool
}

func (p intProp) Name() string         { return p.name }
func (p intProp) Default() interface{} { return p.def }
func (p intProp) Settable() bool       { return p.settable }
func (p intProp) IsArray() bool        { return false }
func (p intProp) Validate(v interface{}) (interface{}, error) {
	n, ok := v.(int)
	if !ok {
		return nil, fmt.Errorf("expected int, got %T", v)
	}
	return n, nil
}

type stringProp struct {
	name     string
	def      string
	settable bool
}

func (p stringProp) Name() string         { return p.name }
func (p stringProp) Default() interface{} { return p.def }
func (p stringProp) Settable() bool       { return p.settable }
func (p stringProp) IsArray() bool        { return false }
func (p stringProp) Validate(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

type componentRefProp struct {
	name     string
	settable bool
}

func (p componentRefProp) Name() string         { return p.name }
func (p componentRefProp) Default() interface{} { return (*Component)(nil) }
func (p componentRefProp) Settable() bool       { return p.settable }
func (p componentRefProp) IsArray() bool        { return false }
func (p componentRefProp) Validate(v interface{}) (interface{}, error) {
	if v == nil {
		return (*Component)(nil), nil
	}
	c, ok := v.(*Component)
	if !ok {
		return nil, fmt.Errorf("expected *Component, got %T", v)
	}
	return c, nil
}

type componentListProp struct {
	name     string
	settable bool
}

func (p componentListProp) Name() string         { return p.name }
func (p componentListProp) Default() interface{} { return []interface{}{} }
func (p componentListProp) Settable() bool       { return p.settable }
func (p componentListProp) IsArray() bool        { return true }
func (p componentListProp) Validate(v interface{}) (interface{}, error) {
	items, ok := v.([]interface{})
	if !ok {
		if v == nil {
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("expected []interface{}, got %T", v)
	}
	return items, nil
}

type dictProp struct {
	name     string
	settable bool
}

func (p dictProp) Name() string         { return p.name }
func (p dictProp) Default() interface{} { return map[string]interface{}{} }
func (p dictProp) Settable() bool       { return p.settable }
func (p dictProp) IsArray() bool        { return false }
func (p dictProp) IsDict() bool         { return true }
func (p dictProp) Validate(v interface{}) (interface{}, error) {
	items, ok := v.(map[string]interface{})
	if !ok {
		if v == nil {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("expected map[string]interface{}, got %T", v)
	}
	return items, nil
}

// widgetSchema is a small reusable schema exercising a settable scalar, a
// read-only derived scalar, a single-component reference, and a sequence of
// component references, enough to drive action/emitter/reaction/connection
// tests without each needing its own schema.
var widgetSchema = DefineSchema("widget", func(s *Schema) {
	s.Property(intProp{name: "count", def: 0, settable: true})
	s.Property(intProp{name: "doubled", def: 0, settable: false})
	s.Property(stringProp{name: "label", def: "", settable: true})
	s.Property(componentRefProp{name: "child", settable: true})
	s.Property(componentListProp{name: "children", settable: true})
	s.Property(dictProp{name: "tags", settable: true})

	s.Action("bump", func(c *Component, args ...interface{}) error {
		cur := c.Get("count").(int)
		return c.Mutate("count", cur+1, MutationSet, 0)
	})
	s.Action("fail", func(c *Component, args ...interface{}) error {
		return fmt.Errorf("boom")
	})

	s.Emitter("ping", func(c *Component, args ...interface{}) map[string]interface{} {
		return map[string]interface{}{"args": args}
	})
})

func newWidget(loop *Loop) *Component {
	return NewComponent(loop, widgetSchema, nil)
}
