package repository

import (
	"context"
	"fmt"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/pkg/config"
	"roomstay/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RangeLockCollectionName = "Range_locks"
)

// RangeLockRepository provides operations for short-TTL advisory range locks
type RangeLockRepository interface {
	Acquire(ctx context.Context, lock *model.RangeLock, now time.Time) error
	Release(ctx context.Context, key, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type mongoRangeLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRangeLockRepository(cfg *config.Config) RangeLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRangeLockRepository{
		cfg:        cfg,
		collection: db.Collection(RangeLockCollectionName),
	}
}

// Acquire takes the lock in a single upsert. The filter only matches a lock
// document whose lease has lapsed, so an expired lock is reclaimed in place.
// When a live lock exists the filter matches nothing and the upsert collides
// with it on _id, which surfaces as a duplicate key error.
func (r *mongoRangeLockRepository) Acquire(ctx context.Context, lock *model.RangeLock, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = now.UTC().Truncate(time.Millisecond)

	filter := bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"property_id":  lock.PropertyID,
		"room_type_id": lock.RoomTypeID,
		"check_in":     lock.CheckIn,
		"check_out":    lock.CheckOut,
		"token":        lock.Token,
		"expires_at":   lock.ExpiresAt,
		"created_at":   lock.CreatedAt,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return inventoryerrors.ErrLockBusy
		}
		return fmt.Errorf("failed to acquire range lock: %w", err)
	}

	return nil
}

// Release deletes the lock only when the caller still holds it. A lease that
// expired and was reclaimed by another writer carries a different token and
// is left alone.
func (r *mongoRangeLockRepository) Release(ctx context.Context, key, token string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "token": token})
	if err != nil {
		return fmt.Errorf("failed to release range lock: %w", err)
	}

	if result.DeletedCount == 0 {
		return inventoryerrors.ErrLockNotHeld
	}

	return nil
}

// DeleteExpired clears lapsed lock documents. Purely housekeeping: Acquire
// reclaims expired locks on its own, this just keeps the collection small.
func (r *mongoRangeLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired range locks: %w", err)
	}

	return result.DeletedCount, nil
}
