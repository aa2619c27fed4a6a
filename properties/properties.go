// Package properties is the concrete property descriptor catalogue the
// core deliberately omits: scalar and array-valued properties that satisfy
// flux.PropertyDescriptor, ready to hand to Schema.Property.
package properties

import (
	"fmt"
	"time"

	flux "github.com/cerebralia/fluxcore"
)

// Int declares a settable int-valued property with a default.
func Int(name string, def int) flux.PropertyDescriptor {
	return scalar[int]{name: name, def: def, settable: true, coerce: coerceInt}
}

// ReadOnlyInt declares a non-settable int-valued property: no "set_<name>"
// action is generated, so it can only change from within the owning
// component's own action bodies via the mutation channel directly.
func ReadOnlyInt(name string, def int) flux.PropertyDescriptor {
	return scalar[int]{name: name, def: def, settable: false, coerce: coerceInt}
}

// String declares a settable string-valued property with a default.
func String(name string, def string) flux.PropertyDescriptor {
	return scalar[string]{name: name, def: def, settable: true, coerce: coerceString}
}

// Bool declares a settable bool-valued property with a default.
func Bool(name string, def bool) flux.PropertyDescriptor {
	return scalar[bool]{name: name, def: def, settable: true, coerce: coerceBool}
}

// Float declares a settable float64-valued property with a default.
func Float(name string, def float64) flux.PropertyDescriptor {
	return scalar[float64]{name: name, def: def, settable: true, coerce: coerceFloat}
}

// Time declares a settable time.Time-valued property with a default.
func Time(name string, def time.Time) flux.PropertyDescriptor {
	return scalar[time.Time]{name: name, def: def, settable: true, coerce: coerceTime}
}

// List declares a settable array-valued property. Its elements are
// unconstrained (interface{}); use ListOf to additionally validate each
// element against elemValidate.
func List(name string) flux.PropertyDescriptor {
	return listProp{name: name, settable: true}
}

// ListOf declares a settable array-valued property whose elements are each
// passed through elemValidate on set/insert/replace.
func ListOf(name string, elemValidate func(interface{}) (interface{}, error)) flux.PropertyDescriptor {
	return listProp{name: name, settable: true, elemValidate: elemValidate}
}

// Dict declares a settable map-valued property. Its values are
// unconstrained (interface{}); use DictOf to additionally validate each
// value against elemValidate.
func Dict(name string) flux.PropertyDescriptor {
	return dictProp{name: name, settable: true}
}

// DictOf declares a settable map-valued property whose values are each
// passed through elemValidate on set/insert/replace.
func DictOf(name string, elemValidate func(interface{}) (interface{}, error)) flux.PropertyDescriptor {
	return dictProp{name: name, settable: true, elemValidate: elemValidate}
}

// Component declares a settable property holding a single *flux.Component
// (or nil), the building block for connection-string path segments like
// "child.clicked".
func Component(name string) flux.PropertyDescriptor {
	return componentProp{name: name, settable: true}
}

// ComponentList declares a settable property holding a sequence of
// *flux.Component, the building block for "*"/"**" connection-string
// segments.
func ComponentList(name string) flux.PropertyDescriptor {
	return listProp{name: name, settable: true, elemValidate: validateComponent}
}

type scalar[T any] struct {
	name     string
	def      T
	settable bool
	coerce   func(interface{}) (T, error)
}

func (s scalar[T]) Name() string        { return s.name }
func (s scalar[T]) Default() interface{} { return s.def }
func (s scalar[T]) Settable() bool      { return s.settable }
func (s scalar[T]) IsArray() bool       { return false }

func (s scalar[T]) Validate(value interface{}) (interface{}, error) {
	return s.coerce(value)
}

func coerceInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", v)
	}
}

func coerceString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func coerceBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func coerceFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected float64, got %T", v)
	}
}

func coerceTime(v interface{}) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("expected time.Time, got %T", v)
	}
	return t, nil
}

type listProp struct {
	name         string
	settable     bool
	elemValidate func(interface{}) (interface{}, error)
}

func (l listProp) Name() string        { return l.name }
func (l listProp) Settable() bool      { return l.settable }
func (l listProp) IsArray() bool       { return true }
func (l listProp) Default() interface{} { return []interface{}{} }

func (l listProp) Validate(value interface{}) (interface{}, error) {
	items, ok := value.([]interface{})
	if !ok {
		if value == nil {
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("expected []interface{}, got %T", value)
	}
	if l.elemValidate == nil {
		return items, nil
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		v, err := l.elemValidate(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type dictProp struct {
	name         string
	settable     bool
	elemValidate func(interface{}) (interface{}, error)
}

func (d dictProp) Name() string          { return d.name }
func (d dictProp) Settable() bool        { return d.settable }
func (d dictProp) IsArray() bool         { return false }
func (d dictProp) IsDict() bool          { return true }
func (d dictProp) Default() interface{}  { return map[string]interface{}{} }

func (d dictProp) Validate(value interface{}) (interface{}, error) {
	items, ok := value.(map[string]interface{})
	if !ok {
		if value == nil {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("expected map[string]interface{}, got %T", value)
	}
	if d.elemValidate == nil {
		return items, nil
	}
	out := make(map[string]interface{}, len(items))
	for k, item := range items {
		v, err := d.elemValidate(item)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

type componentProp struct {
	name     string
	settable bool
}

func (c componentProp) Name() string         { return c.name }
func (c componentProp) Settable() bool       { return c.settable }
func (c componentProp) IsArray() bool        { return false }
func (c componentProp) Default() interface{} { return (*flux.Component)(nil) }

func (c componentProp) Validate(value interface{}) (interface{}, error) {
	return validateComponent(value)
}

func validateComponent(value interface{}) (interface{}, error) {
	if value == nil {
		return (*flux.Component)(nil), nil
	}
	c, ok := value.(*flux.Component)
	if !ok {
		return nil, fmt.Errorf("expected *flux.Component, got %T", value)
	}
	return c, nil
}
