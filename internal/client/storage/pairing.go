package storage

import "context"

//go:generate moq -out pairing_mock.go . PairingStorage

// PairingStorage defines interface for the persisted pairing flag.
// Once set the flag is sticky: only an explicit unpair clears it.
type PairingStorage interface {
	// GetPairedActive returns false if the flag was never written
	GetPairedActive(ctx context.Context) (bool, error)

	// SetPairedActive stores the flag
	SetPairedActive(ctx context.Context, active bool) error
}
