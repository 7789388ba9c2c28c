package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/iudanet/healthsync/internal/client/storage"
)

// Ключи агента лежат в одном bucket:
// last_step_date, day_offset_steps, watch_app_active, userId
var bucketPhoneSteps = []byte("phone_steps")

// lockTimeout ожидание файловой блокировки. bbolt держит эксклюзивную
// блокировку всё время работы агента, второй процесс должен получить ошибку.
const lockTimeout = time.Second

// Storage локальное хранилище агента и симулятора часов.
// Реализует storage.OffsetStorage, storage.PairingStorage и storage.IdentityStorage.
type Storage struct {
	db *bbolt.DB
}

// New открывает (или создаёт) файл базы dbPath.
// storage.ErrStorageLocked означает, что файл занят другим процессом.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, fmt.Errorf("failed to open %s: %w", dbPath, storage.ErrStorageLocked)
		}
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPhoneSteps)
		return err
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create phone_steps bucket: %w", err), db.Close())
	}

	return &Storage{db: db}, nil
}

// Close закрывает базу. Повторный вызов ничего не делает.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
