package wal

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures a WAL can surface, per the library's
// error taxonomy: config/build failures, I/O failures, codec failures, the
// read/write mode violation, and oversized frames.
type ErrorKind int

const (
	// ConfigInvalid means the location was missing or a size was nonsensical.
	ConfigInvalid ErrorKind = iota
	// IoError wraps an os-level open/read/write/fsync/delete failure.
	IoError
	// CodecError means the payload codec failed to encode or decode a value.
	CodecError
	// AlreadyInWriteModeKind means read() was called after a write() had
	// already succeeded on this engine.
	AlreadyInWriteModeKind
	// FrameTooLarge means the payload length exceeds math.MaxUint32 bytes.
	FrameTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case IoError:
		return "IoError"
	case CodecError:
		return "CodecError"
	case AlreadyInWriteModeKind:
		return "AlreadyInWriteMode"
	case FrameTooLarge:
		return "FrameTooLarge"
	default:
		return "Unknown"
	}
}

// Error is the WAL library's error type: a kind plus the wrapped cause (if
// any). Callers should match on kind with errors.Is against the exported
// sentinels below, or unwrap for the underlying os/codec error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("wal: %s", e.Kind)
	}
	return fmt.Sprintf("wal: %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, wal.ErrAlreadyInWriteMode) works regardless of the
// wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ErrAlreadyInWriteMode is returned by read() once any write() has
// succeeded on the engine.
var ErrAlreadyInWriteMode = &Error{Kind: AlreadyInWriteModeKind, Err: errors.New("read() called after engine entered write mode")}

// ErrFrameTooLarge is returned when a payload exceeds math.MaxUint32 bytes.
var ErrFrameTooLarge = &Error{Kind: FrameTooLarge, Err: errors.New("payload exceeds maximum frame size")}

var (
	errEmptyLocation   = errors.New("location is required")
	errZeroSegmentSize = errors.New("segment size must be greater than zero")
)
