package core

import (
	"github.com/cockroachdb/errors"
)

var (
	// Returned when the drawable surface changed pixel or depth format across a recreation.
	ErrSwapchainFormatChanged = errors.New("swapchain image or depth format has changed")
	// More point lights than the global uniform block can hold.
	ErrLightCapacityExceeded = errors.New("point light capacity exceeded")
	ErrDuplicateObject       = errors.New("game object already registered")
	// The window was closed while the renderer was waiting for a drawable extent.
	ErrWindowClosed = errors.New("window closed")
)

// Precondition reports a programming error: a call made in the wrong state or
// with the wrong arguments. The engine loop stops on these.
func Precondition(format string, args ...interface{}) error {
	return errors.AssertionFailedWithDepthf(1, format, args...)
}

// IsPrecondition reports whether err carries a precondition violation.
func IsPrecondition(err error) bool {
	return errors.IsAssertionFailure(err)
}
