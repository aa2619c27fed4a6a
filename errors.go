package flux

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a FluxError, matching the error taxonomy in the
// specification's error handling design.
type ErrorKind int

const (
	// KindInvariant marks a violation of one of the loop's structural
	// invariants (mutation outside an action frame, use-after-dispose, ...).
	// Fatal to the offending operation; the loop keeps running.
	KindInvariant ErrorKind = iota
	// KindConnection marks a connection-string parse failure or a path
	// segment that resolves to something other than a component/attribute.
	KindConnection
	// KindValidation marks a property validator rejecting a value.
	KindValidation
	// KindUser marks a panic recovered from user-supplied action/reaction code.
	KindUser
	// KindUnknownEvent marks a connection that resolved to a real component
	// but an event type the component's schema never declares.
	KindUnknownEvent
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvariant:
		return "invariant"
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	case KindUser:
		return "user"
	case KindUnknownEvent:
		return "unknown_event"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is comparisons against common invariant
// violations. Specific occurrences are wrapped in *InvariantError, which
// carries the offending component/frame context.
var (
	ErrMutationOutsideAction = errors.New("property mutation attempted outside an action frame")
	ErrDisposed              = errors.New("operation attempted on a disposed component or reaction")
	ErrIndexOutOfRange       = errors.New("mutation index out of range")
	ErrNotArrayProperty      = errors.New("insert/remove/replace applied to a non-array property")
	ErrNotDictProperty       = errors.New("insert/remove/replace applied to a non-array, non-dict property")
	ErrUnknownEvent          = errors.New("connection references an event type the component never declares")
)

// FluxError is implemented by every error type the loop and component base
// raise. It lets callers branch on Kind() without parsing messages, and
// Unwrap() keeps errors.Is/errors.As working against the sentinels above.
type FluxError interface {
	error
	Kind() ErrorKind
	Unwrap() error
}

// InvariantError reports a violation of one of the loop's structural
// invariants. It is fatal to the offending action/reaction/mutation call,
// but the loop itself keeps processing its queues.
type InvariantError struct {
	Component string // component ID, if known
	Op        string // e.g. "mutate", "dispose", "emit"
	Err       error  // wrapped sentinel, e.g. ErrMutationOutsideAction
}

func (e *InvariantError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("flux: invariant violation in %s during %s: %v", e.Component, e.Op, e.Err)
	}
	return fmt.Sprintf("flux: invariant violation during %s: %v", e.Op, e.Err)
}

func (e *InvariantError) Kind() ErrorKind { return KindInvariant }
func (e *InvariantError) Unwrap() error   { return e.Err }

// ConnectionError reports a failure to parse or resolve a connection string
// passed to Reaction. Raised at bind time, before the reaction is registered.
type ConnectionError struct {
	Spec string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("flux: invalid connection spec %q: %v", e.Spec, e.Err)
}

func (e *ConnectionError) Kind() ErrorKind { return KindConnection }
func (e *ConnectionError) Unwrap() error   { return e.Err }

// ValidationError reports a property validator rejecting a value. Surfaced
// to the caller of the action that attempted the mutation; the property is
// left unchanged.
type ValidationError struct {
	Property string
	Value    interface{}
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("flux: invalid value %v for property %q: %v", e.Value, e.Property, e.Err)
}

func (e *ValidationError) Kind() ErrorKind { return KindValidation }
func (e *ValidationError) Unwrap() error   { return e.Err }

// UserError wraps a panic recovered from user-supplied action or reaction
// code. The loop logs it (via the configured error handler) and continues
// with the next queue item; it never aborts the round.
type UserError struct {
	Component string
	Member    string // action or reaction name
	Event     string // event type in play, if any
	Err       error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("flux: panic recovered in %s.%s (event=%q): %v", e.Component, e.Member, e.Event, e.Err)
}

func (e *UserError) Kind() ErrorKind { return KindUser }
func (e *UserError) Unwrap() error   { return e.Err }

// UnknownEventWarning reports a connection that resolved to a live
// component but named an event type the component's schema never declares
// (neither a property nor an emitter nor "dispose"). Non-fatal: the
// connection is still installed, and it fires if the component later emits
// that event type through Emit.
type UnknownEventWarning struct {
	Component string
	EventType string
	Err       error
}

func (e *UnknownEventWarning) Error() string {
	return fmt.Sprintf("flux: connection to %s references unknown event type %q: %v", e.Component, e.EventType, e.Err)
}

func (e *UnknownEventWarning) Kind() ErrorKind { return KindUnknownEvent }
func (e *UnknownEventWarning) Unwrap() error   { return e.Err }

func asError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
