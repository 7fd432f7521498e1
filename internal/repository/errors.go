package repository

import "errors"

// ErrVersionConflict is returned when a versioned update matched the row id
// but not the expected version. Callers re-read and retry the sequence.
var ErrVersionConflict = errors.New("row version conflict")
