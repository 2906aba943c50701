package framequeue

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrConstruction is matched by every error returned from New.
	ErrConstruction = errors.New("framequeue: construction failed")

	// ErrCapacityTooSmall is returned when the requested capacity is below MinCapacity.
	ErrCapacityTooSmall = errors.New("framequeue: capacity must be at least 3")

	// ErrInvalidDimensions is returned for non-positive width, height or bytes per pixel.
	ErrInvalidDimensions = errors.New("framequeue: invalid frame dimensions")

	// ErrFrameTooLarge is returned when width*height*bpp does not fit in an int.
	ErrFrameTooLarge = errors.New("framequeue: frame size overflows")

	// ErrStopped is returned by WaitReadSlot once a stop has been requested.
	ErrStopped = errors.New("framequeue: stop requested")

	// ErrClosed is returned by blocking calls on a closed queue.
	ErrClosed = errors.New("framequeue: queue closed")
)

// ErrorKind classifies construction failures for diagnostics.
// Callers treat every kind the same way: the queue was not built.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindOutOfMemory
	KindInvalidArgument
	KindBusy
	KindOutOfResources
	KindTimeout
	KindDeadlock
	KindNoSuchProcess
	KindPermission
)

// String returns a short human description of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindOutOfMemory:
		return "allocation error"
	case KindInvalidArgument:
		return "invalid argument"
	case KindBusy:
		return "thread busy during operation"
	case KindOutOfResources:
		return "out of resources"
	case KindTimeout:
		return "timeout error"
	case KindDeadlock:
		return "dead lock"
	case KindNoSuchProcess:
		return "no such process"
	case KindPermission:
		return "permission denied"
	default:
		return "unknown error"
	}
}

// KindFromErrno maps a platform error code found in err's chain to an ErrorKind.
func KindFromErrno(err error) ErrorKind {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return KindUnknown
	}
	switch errno {
	case syscall.ENOMEM:
		return KindOutOfMemory
	case syscall.EINVAL:
		return KindInvalidArgument
	case syscall.EBUSY:
		return KindBusy
	case syscall.EAGAIN:
		return KindOutOfResources
	case syscall.ETIMEDOUT:
		return KindTimeout
	case syscall.EDEADLK:
		return KindDeadlock
	case syscall.ESRCH:
		return KindNoSuchProcess
	case syscall.EPERM:
		return KindPermission
	default:
		return KindUnknown
	}
}

// ConstructionError describes why New failed.
type ConstructionError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *ConstructionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("framequeue: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("framequeue: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Is reports ErrConstruction for every ConstructionError.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

func constructionErr(op string, kind ErrorKind, err error) error {
	return &ConstructionError{Op: op, Kind: kind, Err: err}
}
