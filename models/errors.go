package models

import "errors"

// ErrRecordNotFound is returned when a database record is not found.
var ErrRecordNotFound = errors.New("record not found")

// ErrStaleStatus is returned when a conditional status update matched no row
// because the job's status changed after it was read.
var ErrStaleStatus = errors.New("job status changed since it was read")
