package daisy

import "errors"

// Domain errors for the daisy package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, daisy.ErrInvalidParameter) {
//	    // caller supplied an out-of-range value
//	}
var (
	// ErrAuthFailed is returned when the login response carries a
	// non-success result code. Not retried.
	ErrAuthFailed = errors.New("daisy: authentication failed")

	// ErrRequestFailed is returned when any non-login request carries a
	// non-success result code. The raw response is included in the error
	// text for diagnosis; the client does not retry.
	ErrRequestFailed = errors.New("daisy: request failed")

	// ErrCommandRejected is returned when a command submission is not
	// acknowledged with the expected acceptance message code.
	ErrCommandRejected = errors.New("daisy: command rejected")

	// ErrAckProtocol is returned when an acknowledgment response does not
	// carry the expected ack message code. This indicates a backend
	// protocol change and is fatal, never retried.
	ErrAckProtocol = errors.New("daisy: unexpected ack response")

	// ErrAckTimeout is returned when the backend keeps reporting a queued
	// command as received without reaching a terminal state within the
	// configured attempt budget.
	ErrAckTimeout = errors.New("daisy: ack polling exhausted")

	// ErrInvalidParameter is returned by local validation (brightness,
	// color channels, cover percent, heater level) before any network
	// call. The caller can recover by supplying a valid value.
	ErrInvalidParameter = errors.New("daisy: invalid parameter")

	// ErrNotLoggedIn is returned when a session-scoped call is made
	// before Login has succeeded.
	ErrNotLoggedIn = errors.New("daisy: not logged in")
)
