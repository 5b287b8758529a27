package bridge

import "errors"

// Domain-specific errors for bridge operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownDevice is returned when a command names an installation or
	// device the bridge did not discover.
	ErrUnknownDevice = errors.New("bridge: unknown device")

	// ErrUnsupportedAction is returned when a command's action does not
	// apply to the target device's type.
	ErrUnsupportedAction = errors.New("bridge: unsupported action")

	// ErrBadPayload is returned when a command payload cannot be decoded.
	ErrBadPayload = errors.New("bridge: malformed command payload")
)
