package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/healthsync/internal/client/storage"
)

const (
	keyWatchAppActive = "watch_app_active"
	keyUserID         = "userId"
)

// GetPairedActive returns the persisted pairing flag (false if never set)
func (s *Storage) GetPairedActive(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	var active bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}
		v := bucket.Get([]byte(keyWatchAppActive))
		active = len(v) == 1 && v[0] == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to get pairing flag: %w", err)
	}

	return active, nil
}

// SetPairedActive stores the pairing flag
func (s *Storage) SetPairedActive(ctx context.Context, active bool) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	value := []byte{0}
	if active {
		value[0] = 1
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}
		if err := bucket.Put([]byte(keyWatchAppActive), value); err != nil {
			return fmt.Errorf("failed to save pairing flag: %w", err)
		}
		return nil
	})
}

// GetUserID returns the cached user identity
// Returns storage.ErrUserIDNotFound if nothing is cached
func (s *Storage) GetUserID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var userID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}
		v := bucket.Get([]byte(keyUserID))
		if len(v) == 0 {
			return storage.ErrUserIDNotFound
		}
		userID = string(v)
		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

// SaveUserID overwrites the cached user identity
func (s *Storage) SaveUserID(ctx context.Context, userID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}
		if err := bucket.Put([]byte(keyUserID), []byte(userID)); err != nil {
			return fmt.Errorf("failed to save user id: %w", err)
		}
		return nil
	})
}
