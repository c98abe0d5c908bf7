package engine

import "errors"

// ErrRemote is returned when the engine responds with a non-success status
// or a body that cannot be decoded.
var ErrRemote = errors.New("engine request failed")
