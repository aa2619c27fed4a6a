package flux

import (
	"fmt"
	"strings"
)

// segment is one dot-separated piece of a connection string's path, plus
// its quantifier: star 0 is a single component, 1 is "sequence of
// components" (*), 2 is "recursive sequence" (**).
type segment struct {
	name string
	star int
}

// parsedSpec is a connection string after grammar validation, ready to be
// walked against an anchor component. Grammar:
//
//	ConnectionString := ['!'] Segment ('.' Segment)* [':' Label]
//	Segment          := Identifier ['*' | '**']
type parsedSpec struct {
	raw             string
	suppressWarning bool
	segments        []segment
	label           string
}

func parseConnectionString(raw string) (parsedSpec, error) {
	rest := raw
	suppress := false
	if strings.HasPrefix(rest, "!") {
		suppress = true
		rest = rest[1:]
	}

	path := rest
	label := ""
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		path = rest[:idx]
		label = rest[idx+1:]
	}

	if path == "" {
		return parsedSpec{}, &ConnectionError{Spec: raw, Err: fmt.Errorf("empty path")}
	}

	parts := strings.Split(path, ".")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return parsedSpec{}, &ConnectionError{Spec: raw, Err: err}
		}
		segments = append(segments, seg)
	}

	return parsedSpec{raw: raw, suppressWarning: suppress, segments: segments, label: label}, nil
}

func parseSegment(part string) (segment, error) {
	star := 0
	name := part
	switch {
	case strings.HasSuffix(part, "**"):
		star = 2
		name = part[:len(part)-2]
	case strings.HasSuffix(part, "*"):
		star = 1
		name = part[:len(part)-1]
	}
	if name == "" || !isIdentifier(name) {
		return segment{}, fmt.Errorf("invalid segment %q", part)
	}
	return segment{name: name, star: star}, nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			continue
		case r >= '0' && r <= '9' && i > 0:
			continue
		default:
			return false
		}
	}
	return true
}

// String renders the normalized form of the spec: identical in meaning to
// raw, but with a canonical quantifier suffix and label separator, so two
// syntactically different but semantically identical specs compare equal.
func (s parsedSpec) String() string {
	var b strings.Builder
	if s.suppressWarning {
		b.WriteByte('!')
	}
	for i, seg := range s.segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.name)
		switch seg.star {
		case 1:
			b.WriteByte('*')
		case 2:
			b.WriteString("**")
		}
	}
	if s.label != "" {
		b.WriteByte(':')
		b.WriteString(s.label)
	}
	return b.String()
}

// endpoint is a terminal (component, event type) pair a reaction's spec
// resolved to: events delivered here are handed to the reaction's body.
type endpoint struct {
	comp      *Component
	eventType string
}

// structEndpoint is an intermediate (component, property) pair a spec
// walked through: changes here only mark the reaction for reconnection,
// they are never delivered as events.
type structEndpoint struct {
	comp *Component
	prop string
}

type walkResult struct {
	endpoints  []endpoint
	structural []structEndpoint
}

// walk resolves spec against anchor, producing the terminal endpoints to
// subscribe the reaction's body to and the intermediate structural
// endpoints that should trigger reconnection when they change.
func (s parsedSpec) walk(anchor *Component) (walkResult, error) {
	var out walkResult
	if err := walkSegments(anchor, s.segments, &out, s.suppressWarning); err != nil {
		return walkResult{}, err
	}
	return out, nil
}

func walkSegments(cur *Component, segs []segment, out *walkResult, suppress bool) error {
	if cur == nil {
		return &ConnectionError{Err: fmt.Errorf("connection path resolved to a nil component")}
	}
	seg := segs[0]
	if len(segs) == 1 {
		out.endpoints = append(out.endpoints, endpoint{comp: cur, eventType: seg.name})
		if !suppress && !cur.declaresEvent(seg.name) {
			logUnknownEvent(cur, seg.name)
		}
		return nil
	}

	out.structural = append(out.structural, structEndpoint{comp: cur, prop: seg.name})
	val := cur.Get(seg.name)

	switch seg.star {
	case 0:
		next, ok := resolveComponent(cur, seg.name, val)
		if !ok {
			return &ConnectionError{Err: fmt.Errorf("segment %q on %s does not resolve to a component", seg.name, cur.ID())}
		}
		return walkSegments(next, segs[1:], out, suppress)

	case 1:
		children, ok := toComponentSlice(val)
		if !ok {
			return &ConnectionError{Err: fmt.Errorf("segment %q on %s does not resolve to a component sequence", seg.name, cur.ID())}
		}
		for _, child := range children {
			if err := walkSegments(child, segs[1:], out, suppress); err != nil {
				return err
			}
		}
		return nil

	case 2:
		children, ok := toComponentSlice(val)
		if !ok {
			return &ConnectionError{Err: fmt.Errorf("segment %q on %s does not resolve to a component sequence", seg.name, cur.ID())}
		}
		var descend func(*Component) error
		descend = func(c *Component) error {
			if err := walkSegments(c, segs[1:], out, suppress); err != nil {
				return err
			}
			nested := c.Get(seg.name)
			nestedChildren, ok := toComponentSlice(nested)
			if !ok {
				return nil
			}
			out.structural = append(out.structural, structEndpoint{comp: c, prop: seg.name})
			for _, nc := range nestedChildren {
				if err := descend(nc); err != nil {
					return err
				}
			}
			return nil
		}
		for _, child := range children {
			if err := descend(child); err != nil {
				return err
			}
		}
		return nil

	default:
		return &ConnectionError{Err: fmt.Errorf("invalid quantifier on segment %q", seg.name)}
	}
}

func resolveComponent(cur *Component, name string, val interface{}) (*Component, bool) {
	if c, ok := val.(*Component); ok {
		return c, true
	}
	if attr, ok := cur.schema.attributes[name]; ok {
		if c, ok := attr.Value().(*Component); ok {
			return c, true
		}
	}
	return nil, false
}

func toComponentSlice(val interface{}) ([]*Component, bool) {
	switch v := val.(type) {
	case []*Component:
		return v, true
	case []interface{}:
		out := make([]*Component, 0, len(v))
		for _, e := range v {
			c, ok := e.(*Component)
			if !ok {
				return nil, false
			}
			out = append(out, c)
		}
		return out, true
	default:
		return nil, false
	}
}
