package binding

import (
	"errors"
	"fmt"
)

// ErrSelfBinding is the cause reported when source and target are the
// same object and the same property.
var ErrSelfBinding = errors.New("binding: cannot bind a property to itself")

// ErrReleased is the cause reported when an operation is attempted on a
// binding that has already been released or severed.
var ErrReleased = errors.New("binding: binding has been released")

// Direction identifies which way a propagation ran.
type Direction int

const (
	// Forward propagates source changes into the target.
	Forward Direction = iota
	// Backward propagates target changes into the source; only
	// bidirectional bindings ever run backward.
	Backward
)

// String returns "forward" or "backward".
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ValidationError reports why Bind refused to create a binding. It is
// raised synchronously at construction; no binding exists and no side
// effects were performed.
type ValidationError struct {
	// Object and Property name the endpoint that failed validation.
	Object   string
	Property string

	// Err is the underlying cause, matchable with errors.Is against
	// ErrSelfBinding or the observable package's access sentinels.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("binding: %v", e.Err)
	}
	return fmt.Sprintf("binding: %q on %q: %v", e.Property, e.Object, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransformError reports a failed value transform during one propagation.
// The update it belongs to was dropped; the binding stays alive and will
// handle subsequent events normally.
type TransformError struct {
	Direction Direction
	Property  string
	Err       error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("binding: %s transform of %q failed: %v", e.Direction, e.Property, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransformError) Unwrap() error {
	return e.Err
}
