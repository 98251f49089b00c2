package notification

import "errors"

// ErrDispatch is returned when the delivery provider fails to send an email.
// The throttle state is left unchanged, so a redelivered message is eligible again.
var ErrDispatch = errors.New("notification dispatch failed")

// ErrNoRecipient is returned when an enabled config has no email address.
var ErrNoRecipient = errors.New("notification config has no recipient")
