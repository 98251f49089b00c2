package rabbitmq

import "errors"

// ErrUnavailable is returned when the broker cannot be reached or a publish
// fails on the current session. The cached session is dropped first, so a
// later call redials.
var ErrUnavailable = errors.New("message broker unavailable")

// errDeliveriesClosed signals that the broker closed the delivery stream.
var errDeliveriesClosed = errors.New("delivery channel closed by broker")
