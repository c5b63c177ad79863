package messaging

import "errors"

var (
	// ErrForbidden is an access policy denial. Terminal for the caller, not
	// retryable, and produces no side effects.
	ErrForbidden = errors.New("not allowed to message this user")
	// ErrSelfChat rejects self-messaging regardless of role.
	ErrSelfChat = errors.New("cannot send messages to yourself")
	// ErrTimeout means a downstream store call exceeded its deadline. Safe
	// to retry.
	ErrTimeout = errors.New("operation timed out")
)
