// Package errors marks errors with the location where they are passed.
//
//	return xe.Wrap(err)
//
// gives an error whose message is like
//
//	@ github.com/opst/pipedeck/pkg/history/postgres.(*Store).Entries (postgres.go:123) <- original message
//
// Marks stack up as errors are wrapped again, so the message tells where the error has come through.
package errors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// ErrWithCaller is an error marked with its caller.
type ErrWithCaller struct {
	frame runtime.Frame
	note  string
	err   error
}

func (e *ErrWithCaller) File() string {
	return e.frame.File
}

func (e *ErrWithCaller) Line() int {
	return e.frame.Line
}

func (e *ErrWithCaller) Func() string {
	return e.frame.Function
}

func (e *ErrWithCaller) Error() string {
	loc := fmt.Sprintf("@ %s (%s:%d)", e.Func(), filepath.Base(e.File()), e.Line())
	if e.note != "" {
		loc += " " + e.note
	}
	return loc + " <- " + e.err.Error()
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// New creates an error with text, marked with the caller.
func New(text string) error {
	return mark("", errors.New(text))
}

// Wrap marks err with the caller. Wrap(nil) is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return mark("", err)
}

// WrapWithNote marks err with the caller and note. WrapWithNote(_, nil) is nil.
func WrapWithNote(note string, err error) error {
	if err == nil {
		return nil
	}
	return mark(note, err)
}

// mark should be called from exported functions directly.
func mark(note string, err error) error {
	pcs := make([]uintptr, 1)
	// skip runtime.Callers, mark and its caller
	n := runtime.Callers(3, pcs)

	frame := runtime.Frame{Function: "(unknown func)", File: "?", Line: -1}
	if 0 < n {
		frame, _ = runtime.CallersFrames(pcs[:n]).Next()
	}
	return &ErrWithCaller{frame: frame, note: note, err: err}
}
