// ABOUTME: Error taxonomy for the delivery router
// ABOUTME: Validation and recipient-lookup failures happen before any side effect

package delivery

import "errors"

// ErrValidation is returned for malformed or empty input.
// The request is rejected before any side effect.
var ErrValidation = errors.New("validation failed")

// ErrRecipientNotFound is returned when the receiver is not in the user
// directory. Rejected before persistence.
var ErrRecipientNotFound = errors.New("recipient not found")

// ErrSelfMessage is returned when a sender addresses themselves and the
// self-messaging policy forbids it.
var ErrSelfMessage = errors.New("cannot send a message to yourself")
