package storage

import "context"

//go:generate moq -out identity_mock.go . IdentityStorage

// IdentityStorage defines interface for the locally cached user identity
type IdentityStorage interface {
	// GetUserID returns the cached user id
	// Returns ErrUserIDNotFound if the user never logged in on this device
	GetUserID(ctx context.Context) (string, error)

	// SaveUserID overwrites the cached user id
	SaveUserID(ctx context.Context, userID string) error
}
