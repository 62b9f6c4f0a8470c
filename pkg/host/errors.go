package host

import (
	"errors"
	"fmt"
)

// Sentinel errors for loop and component misuse.
var (
	// ErrLoopClosed is returned when dispatching to a closed loop.
	ErrLoopClosed = errors.New("host: loop closed")

	// ErrQueueFull is returned when the loop's task queue is full and the task is dropped.
	ErrQueueFull = errors.New("host: task queue full")

	// ErrNotRendering is the panic value when a hook is called outside a render.
	ErrNotRendering = errors.New("host: hook called outside render")
)

// PanicError wraps a value recovered from a panicking loop task.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the panic value as a message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("host: panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
