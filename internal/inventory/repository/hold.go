package repository

import (
	"context"
	"errors"
	"fmt"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/pkg/config"
	"roomstay/pkg/model"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	HoldCollectionName = "Holds"
)

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type HoldRepository interface {
	Create(ctx context.Context, hold *model.Hold) error
	FindByID(ctx context.Context, id string) (*model.Hold, error)
	ConfirmPending(ctx context.Context, id string, bookingID string, now time.Time) (*model.Hold, error)
	ReleasePending(ctx context.Context, id string) (*model.Hold, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Hold, error)
	ClaimExpired(ctx context.Context, id string) (*model.Hold, error)
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(HoldCollectionName),
	}
}

func (r *mongoHoldRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if hold.ID == "" {
		hold.ID = uuid.New().String()
	}
	hold.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, hold)
	if err != nil {
		return fmt.Errorf("failed to create hold: %w", err)
	}

	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	var hold model.Hold
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}

	return &hold, nil
}

// ConfirmPending flips a live pending hold to confirmed in one atomic update.
// The filter checks the expiry timestamp itself, so a hold past its deadline
// cannot be confirmed even before the sweeper has marked it expired.
func (r *mongoHoldRepository) ConfirmPending(ctx context.Context, id string, bookingID string, now time.Time) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":        id,
		"status":     model.HoldPending,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     model.HoldConfirmed,
		"booking_id": bookingID,
		"updated_at": now.UTC().Truncate(time.Millisecond),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var hold model.Hold
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyTransitionMiss(ctx, id, now)
		}
		return nil, fmt.Errorf("failed to confirm hold: %w", err)
	}

	return &hold, nil
}

// ReleasePending flips a pending hold to released and returns its prior
// state so the caller knows which counters to restore. A miss is classified
// against the current document.
func (r *mongoHoldRepository) ReleasePending(ctx context.Context, id string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    id,
		"status": model.HoldPending,
	}
	update := bson.M{"$set": bson.M{
		"status":     model.HoldReleased,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var hold model.Hold
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyReleaseMiss(ctx, id)
		}
		return nil, fmt.Errorf("failed to release hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.HoldPending,
		"expires_at": bson.M{"$lte": now},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.Hold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode expired holds: %w", err)
	}

	return holds, nil
}

// ClaimExpired flips one pending hold to expired, returning its prior state.
// Only the claimer that wins the flip restores counters, which keeps the
// sweeper idempotent across overlapping runs.
func (r *mongoHoldRepository) ClaimExpired(ctx context.Context, id string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":    id,
		"status": model.HoldPending,
	}
	update := bson.M{"$set": bson.M{
		"status":     model.HoldExpired,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var hold model.Hold
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrHoldNotPending
		}
		return nil, fmt.Errorf("failed to claim expired hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) classifyTransitionMiss(ctx context.Context, id string, now time.Time) error {
	var hold model.Hold
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return inventoryerrors.ErrNotFound
		}
		return fmt.Errorf("failed to classify hold state: %w", err)
	}

	switch hold.Status {
	case model.HoldExpired:
		return inventoryerrors.ErrHoldExpired
	case model.HoldPending:
		if !hold.ExpiresAt.After(now) {
			return inventoryerrors.ErrHoldExpired
		}
		return inventoryerrors.ErrHoldNotPending
	default:
		return inventoryerrors.ErrHoldNotPending
	}
}

func (r *mongoHoldRepository) classifyReleaseMiss(ctx context.Context, id string) error {
	var hold model.Hold
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return inventoryerrors.ErrNotFound
		}
		return fmt.Errorf("failed to classify hold state: %w", err)
	}

	switch hold.Status {
	case model.HoldReleased, model.HoldExpired:
		// Already terminal with counters restored; release is idempotent.
		return nil
	default:
		return inventoryerrors.ErrHoldNotPending
	}
}
