package service

import (
	"context"
	"errors"
	"math/rand"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/internal/inventory/repository"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	apperrors "roomstay/pkg/errors"
	"roomstay/pkg/model"
	"time"

	"github.com/google/uuid"
)

// LockManager serializes writers on a (property, room type). Acquire retries
// a bounded number of times with jittered backoff before giving up, so lock
// contention surfaces to callers as a retryable conflict rather than a hang.
type LockManager interface {
	Acquire(ctx context.Context, propertyID, roomTypeID string, checkIn, checkOut time.Time) (*model.LockToken, error)
	Release(ctx context.Context, token *model.LockToken) error
}

type lockManager struct {
	repo  repository.RangeLockRepository
	clock clock.Clock
	cfg   *config.Config
}

func NewLockManager(repo repository.RangeLockRepository, clk clock.Clock, cfg *config.Config) LockManager {
	return &lockManager{
		repo:  repo,
		clock: clk,
		cfg:   cfg,
	}
}

func (m *lockManager) Acquire(ctx context.Context, propertyID, roomTypeID string, checkIn, checkOut time.Time) (*model.LockToken, error) {
	key := model.RangeLockKey(propertyID, roomTypeID)
	token := uuid.New().String()

	for attempt := 1; attempt <= m.cfg.LockRetryAttempts; attempt++ {
		now := m.clock.Now()
		lock := &model.RangeLock{
			ID:         key,
			PropertyID: propertyID,
			RoomTypeID: roomTypeID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Token:      token,
			ExpiresAt:  now.Add(m.cfg.LockTTL),
		}

		err := m.repo.Acquire(ctx, lock, now)
		if err == nil {
			return &model.LockToken{Key: key, Token: token}, nil
		}
		if !errors.Is(err, inventoryerrors.ErrLockBusy) {
			return nil, apperrors.Internal("Failed to acquire range lock", err)
		}

		if attempt == m.cfg.LockRetryAttempts {
			break
		}

		// Linear backoff with jitter to spread competing writers apart.
		backoff := time.Duration(attempt) * m.cfg.LockRetryBackoff
		backoff += time.Duration(rand.Int63n(int64(m.cfg.LockRetryBackoff)))

		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("Request cancelled while waiting for range lock")
		case <-time.After(backoff):
		}
	}

	return nil, apperrors.Conflict("Inventory for this room type is being modified by another request. Please try again.")
}

func (m *lockManager) Release(ctx context.Context, token *model.LockToken) error {
	err := m.repo.Release(ctx, token.Key, token.Token)
	if err != nil && !errors.Is(err, inventoryerrors.ErrLockNotHeld) {
		return err
	}
	// A lapsed lease reclaimed by another writer is not an error here;
	// this holder's work already finished under its own lease.
	return nil
}
