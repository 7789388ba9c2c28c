package storage

import "errors"

// Common client storage errors
var (
	// ErrOffsetNotFound indicates that no daily offset has been persisted yet
	ErrOffsetNotFound = errors.New("daily offset not found")

	// ErrUserIDNotFound indicates that no user identity is cached locally
	ErrUserIDNotFound = errors.New("user id not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrStorageLocked indicates that another process holds the database file
	ErrStorageLocked = errors.New("storage is locked by another process")
)
