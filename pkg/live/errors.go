package live

import "errors"

// ErrServerClosed is returned when publishing on a closed server.
var ErrServerClosed = errors.New("live: server closed")
