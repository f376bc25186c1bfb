package errors

import (
	"fmt"
	"strings"
)

type Verbose interface {
	Verbose() string
}

// CUIError is an error to be shown to humans in console.
//
// Error() is a short message, and Verbose() tells it with its causes.
type CUIError interface {
	error
	Verbose
}

type cuierror struct {
	summary     string
	verbose     string
	printDetail func(summary string) (string, error)
	base        error
}

func (ce *cuierror) Unwrap() error {
	return ce.base
}

func (ce *cuierror) Error() string {
	if ce.printDetail == nil {
		return ce.summary
	}
	message, err := ce.printDetail(ce.summary)
	if err != nil {
		return fmt.Sprintf(
			"%s\n(building detailed message causes error: %s)",
			ce.summary, err,
		)
	}
	return message
}

func (ce *cuierror) Verbose() string {
	message := []string{ce.Error()}
	if ce.verbose != "" {
		message = append(message, " ("+ce.verbose+") ")
	}

	if ce.base != nil {
		cause := ce.base.Error()
		if v, ok := ce.base.(Verbose); ok {
			cause = v.Verbose()
		}
		message = append(message, "caused by: ", cause)
	}
	return strings.Join(message, "\n")
}

type CuiErrorOption func(*cuierror)

func NewCuiError(summary string, options ...CuiErrorOption) CUIError {
	err := &cuierror{summary: summary}
	for _, o := range options {
		o(err)
	}
	return err
}

func WithVerbose(verbose string) CuiErrorOption {
	return func(cerr *cuierror) {
		cerr.verbose = verbose
	}
}

// WithDetail sets a function to build message from summary.
func WithDetail(printer func(summary string) (string, error)) CuiErrorOption {
	return func(cerr *cuierror) {
		cerr.printDetail = printer
	}
}

func WithCause(err error) CuiErrorOption {
	return func(cerr *cuierror) {
		cerr.base = err
	}
}
