package basis

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientMemory is returned when the accepted states do not fit the
	// output buffers or the scratch budget. No partial basis is returned.
	ErrInsufficientMemory = errors.New("basis: insufficient memory")

	// ErrInvalidMax is returned when a full search asks for more candidates than
	// the state type can represent.
	ErrInvalidMax = errors.New("basis: candidate count exceeds state space")
)

// ErrBufferMismatch indicates an output buffer whose length does not match its input.
type ErrBufferMismatch struct {
	Buffer string
	Want   int
	Got    int
}

func (e *ErrBufferMismatch) Error() string {
	return fmt.Sprintf("basis: %s buffer has length %d, want %d", e.Buffer, e.Got, e.Want)
}
