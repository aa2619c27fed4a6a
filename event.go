package flux

import "fmt"

// Mutation identifies the kind of in-place change an array/dict-valued
// property underwent, carried on property-change events for those
// properties alongside the base Event fields.
type Mutation string

const (
	MutationSet     Mutation = "set"
	MutationInsert  Mutation = "insert"
	MutationRemove  Mutation = "remove"
	MutationReplace Mutation = "replace"
)

// Dict is an immutable, attribute-accessible event record. It always
// carries Source and Type; every other field lives in a small map so
// arbitrary event-specific payloads (old/new value, mutation index, ...)
// can ride along without a bespoke struct per event type.
//
// Dict is the Go rendering of the specification's "tagged record with a
// small info mapping": Source/Type are first-class because every event has
// them, everything else is keyed.
type Dict struct {
	Source *Component
	Type   string
	info   map[string]interface{}
}

// NewDict builds a Dict from a source component, an event type, and a set
// of additional fields merged into info.
func NewDict(source *Component, typ string, info map[string]interface{}) Dict {
	d := Dict{Source: source, Type: typ}
	if len(info) > 0 {
		d.info = make(map[string]interface{}, len(info))
		for k, v := range info {
			d.info[k] = v
		}
	}
	return d
}

// Get returns the value stored under key, and whether it was present.
// Source and Type are also reachable through Get for uniform keyed access,
// matching the specification's "attribute access is equivalent to keyed
// access" rule.
func (d Dict) Get(key string) (interface{}, bool) {
	switch key {
	case "source":
		return d.Source, true
	case "type":
		return d.Type, true
	}
	if d.info == nil {
		return nil, false
	}
	v, ok := d.info[key]
	return v, ok
}

// MustGet returns the value stored under key, or nil if absent.
func (d Dict) MustGet(key string) interface{} {
	v, _ := d.Get(key)
	return v
}

// OldValue returns the "old_value" field of a scalar property-change event.
func (d Dict) OldValue() interface{} { return d.MustGet("old_value") }

// NewValue returns the "new_value" field of a scalar property-change event.
func (d Dict) NewValue() interface{} { return d.MustGet("new_value") }

// MutationKind returns the "mutation" field of an array/dict property-change
// event, or "" if this event did not carry one (i.e. it was a scalar set).
func (d Dict) MutationKind() Mutation {
	v, ok := d.Get("mutation")
	if !ok {
		return ""
	}
	m, _ := v.(Mutation)
	return m
}

// Index returns the "index" field of an array mutation event, or 0 when the
// event has none (dict mutation events carry no index).
func (d Dict) Index() int {
	v, ok := d.Get("index")
	if !ok {
		return 0
	}
	i, _ := v.(int)
	return i
}

// Objects returns the "objects" field of an array/dict mutation event: the
// inserted/replaced values for insert/replace, or the removed count for
// remove.
func (d Dict) Objects() interface{} { return d.MustGet("objects") }

func (d Dict) String() string {
	src := "<nil>"
	if d.Source != nil {
		src = d.Source.ID()
	}
	return fmt.Sprintf("Dict{source=%s, type=%s, info=%v}", src, d.Type, d.info)
}
