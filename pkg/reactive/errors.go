package reactive

import "errors"

// ErrSessionActive is the panic value when Subscribe is called on a session
// that is still recording. Subscribe only after Stop.
var ErrSessionActive = errors.New("reactive: subscribe on a recording session")
