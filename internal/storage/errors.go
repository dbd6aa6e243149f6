package storage

import "errors"

// ErrNotFound reports a log_id with no mirrored row.
var ErrNotFound = errors.New("storage: not found")
