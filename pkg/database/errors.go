package database

import "errors"

// ErrNotReady reports that the database could not be reached.
var ErrNotReady = errors.New("database not ready")
