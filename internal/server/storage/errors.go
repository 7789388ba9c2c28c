package storage

import "errors"

// Common storage errors
var (
	// ErrLiveDataNotFound indicates that live_data document does not exist yet
	ErrLiveDataNotFound = errors.New("live data not found")

	// ErrEmptyPatch indicates that update has no fields
	ErrEmptyPatch = errors.New("empty patch")
)
