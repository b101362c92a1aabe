package database

import "errors"

// ErrNotFound is returned when a query history record does not exist
var ErrNotFound = errors.New("query record not found")
