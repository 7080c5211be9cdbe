package service

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCallback    = errors.New("missing callback")
	ErrInvalidArgOrder    = errors.New("required argument follows an optional one")
	ErrMissingName        = errors.New("missing name")
	ErrMissingDescription = errors.New("missing description")
	ErrNoTimings          = errors.New("no timings: the service can never be launched")
	ErrNilTiming          = errors.New("nil timing")

	ErrMissingArg = errors.New("missing argument")
	ErrInvalidArg = errors.New("invalid argument")
)

// BuildError reports why a condition or service declaration was rejected.
type BuildError struct {
	// Service is the declared service name, empty for condition builds.
	Service string
	// Condition describes the condition being built, for example `command "ping"`.
	Condition string
	Detail    string
	Err       error
}

func (e *BuildError) Error() string {
	if e == nil {
		return ""
	}

	subject := "service"
	switch {
	case e.Condition != "":
		subject = "condition " + e.Condition
	case e.Service != "":
		subject = fmt.Sprintf("service %q", e.Service)
	}

	if e.Detail == "" {
		return fmt.Sprintf("build %s: %v", subject, e.Err)
	}
	return fmt.Sprintf("build %s: %v (%s)", subject, e.Err, e.Detail)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ArgError reports an argument that could not be resolved from message tokens.
type ArgError struct {
	Arg   string
	Value string
	Err   error
}

func (e *ArgError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Arg)
	}
	return fmt.Sprintf("%v: %s=%q", e.Err, e.Arg, e.Value)
}

func (e *ArgError) Unwrap() error {
	return e.Err
}
