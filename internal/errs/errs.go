// Package errs defines the failure taxonomy shared by the geometry, surface,
// pipeline and encoder packages.
//
// Every failure returned by those packages wraps exactly one of the sentinel
// errors below, so callers classify with errors.Is. Constructors attach a
// stack trace via github.com/go-errors/errors; the CLI prints it when run
// with --debug.
package errs

import (
	"context"
	"errors"
	"fmt"

	errorsGo "github.com/go-errors/errors"
)

var (
	// ErrInvalidResizeOption marks a bad or contradictory request. It is a
	// programmer error and is never retried.
	ErrInvalidResizeOption = errors.New("invalid resize option")

	// ErrSurfaceAllocationFailed marks resource exhaustion in the surface pool.
	ErrSurfaceAllocationFailed = errors.New("surface allocation failed")

	// ErrEncodingFailed marks a refused format or quality. Callers may retry
	// with another format.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrCancelled marks cooperative cancellation through a context.
	ErrCancelled = errors.New("cancelled")
)

// Invalidf returns an ErrInvalidResizeOption failure with a formatted reason.
func Invalidf(format string, a ...any) error {
	return errorsGo.Wrap(fmt.Errorf("%w: %s", ErrInvalidResizeOption, fmt.Sprintf(format, a...)), 1)
}

// Encoding returns an ErrEncodingFailed failure. cause may be nil.
func Encoding(cause error, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	if cause == nil {
		return errorsGo.Wrap(fmt.Errorf("%w: %s", ErrEncodingFailed, msg), 1)
	}
	return errorsGo.Wrap(fmt.Errorf("%w: %s: %w", ErrEncodingFailed, msg, cause), 1)
}

// Cancelled returns an ErrCancelled failure wrapping the context error.
func Cancelled(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return errorsGo.Wrap(fmt.Errorf("%w: %w", ErrCancelled, cause), 1)
}

// Wrap attaches a stack trace to err. A nil err stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errorsGo.Wrap(err, 1)
}

// IsCancelled reports whether err stems from cancellation, either through
// ErrCancelled or a bare context error.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Check converts a done context into an ErrCancelled failure.
func Check(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return errorsGo.Wrap(fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()), 1)
	default:
		return nil
	}
}

// Stack returns the recorded stack trace of err, or "" if none was recorded.
func Stack(err error) string {
	var e *errorsGo.Error
	if errors.As(err, &e) {
		return e.ErrorStack()
	}
	return ""
}
