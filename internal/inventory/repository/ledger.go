package repository

import (
	"context"
	"fmt"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/pkg/config"
	mongotx "roomstay/pkg/db/mongo"
	"roomstay/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LedgerCollectionName = "Inventory_ledger"
)

type mongoLedgerRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type LedgerRepository interface {
	FindRows(ctx context.Context, propertyID, roomTypeID string, startDate, endDate time.Time) ([]*model.LedgerRow, error)
	FindRow(ctx context.Context, propertyID, roomTypeID string, date time.Time) (*model.LedgerRow, error)
	EnsureWindow(ctx context.Context, rows []*model.LedgerRow) (int64, error)
	ApplyReservedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error)
	ApplyBlockedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error)
	UpdateRestrictions(ctx context.Context, update *model.LedgerUpdate) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(LedgerCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoLedgerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoLedgerRepository) FindRows(ctx context.Context, propertyID, roomTypeID string, startDate, endDate time.Time) ([]*model.LedgerRow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"property_id":  propertyID,
		"room_type_id": roomTypeID,
		"date": bson.M{
			"$gte": model.Night(startDate),
			"$lt":  model.Night(endDate),
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger rows: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.LedgerRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode ledger rows: %w", err)
	}

	return rows, nil
}

func (r *mongoLedgerRepository) FindRow(ctx context.Context, propertyID, roomTypeID string, date time.Time) (*model.LedgerRow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"property_id":  propertyID,
		"room_type_id": roomTypeID,
		"date":         model.Night(date),
	}

	var row model.LedgerRow
	err := r.collection.FindOne(ctx, filter).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, inventoryerrors.ErrWindowNotOpen
		}
		return nil, fmt.Errorf("failed to find ledger row: %w", err)
	}

	return &row, nil
}

// EnsureWindow upserts ledger rows by (property, room type, date). Existing
// rows keep their counters and restrictions untouched; only missing dates
// are created. Returns the number of rows inserted.
func (r *mongoLedgerRepository) EnsureWindow(ctx context.Context, rows []*model.LedgerRow) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, row := range rows {
		filter := bson.M{
			"property_id":  row.PropertyID,
			"room_type_id": row.RoomTypeID,
			"date":         model.Night(row.Date),
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"property_id":         row.PropertyID,
				"room_type_id":        row.RoomTypeID,
				"date":                model.Night(row.Date),
				"total_rooms":         row.TotalRooms,
				"available_rooms":     row.TotalRooms,
				"reserved_rooms":      0,
				"blocked_rooms":       0,
				"overbooking_limit":   row.OverbookingLimit,
				"closed_to_arrival":   false,
				"closed_to_departure": false,
				"stop_sell":           false,
				"created_at":          now,
			}}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to open selling window: %w", err)
	}

	return result.UpsertedCount, nil
}

// ApplyReservedDelta atomically moves reserved_rooms by delta on one date.
// The filter embeds the capacity invariant, so an increase that would push
// reserved+blocked past total+overbooking, or any delta that would take
// reserved below zero, matches nothing and reports applied=false instead of
// corrupting the row.
func (r *mongoLedgerRepository) ApplyReservedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error) {
	return r.applyDelta(ctx, propertyID, roomTypeID, date, "reserved_rooms", delta)
}

// ApplyBlockedDelta atomically moves blocked_rooms by delta on one date,
// under the same invariant guard as reserved deltas.
func (r *mongoLedgerRepository) ApplyBlockedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error) {
	return r.applyDelta(ctx, propertyID, roomTypeID, date, "blocked_rooms", delta)
}

func (r *mongoLedgerRepository) applyDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, field string, delta int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// The capacity ceiling only gates deltas that grow usage. A freeing
	// delta must always land, even on a row already past the ceiling
	// (an operator may have lowered the overbooking limit under load),
	// otherwise the excess rooms could never be given back.
	guards := bson.A{
		bson.M{"$gte": bson.A{bson.M{"$add": bson.A{"$" + field, delta}}, 0}},
	}
	if delta > 0 {
		guards = append(guards, bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$reserved_rooms", "$blocked_rooms", delta}},
			bson.M{"$add": bson.A{"$total_rooms", "$overbooking_limit"}},
		}})
	}

	filter := bson.M{
		"property_id":  propertyID,
		"room_type_id": roomTypeID,
		"date":         model.Night(date),
		"$expr":        bson.M{"$and": guards},
	}

	update := bson.M{
		"$inc": bson.M{field: delta, "available_rooms": -delta},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to apply %s delta: %w", field, err)
	}

	return result.MatchedCount == 1, nil
}

func (r *mongoLedgerRepository) UpdateRestrictions(ctx context.Context, update *model.LedgerUpdate) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if update.MinStay != nil {
		set["min_stay"] = *update.MinStay
	}
	if update.MaxStay != nil {
		set["max_stay"] = *update.MaxStay
	}
	if update.ClosedToArrival != nil {
		set["closed_to_arrival"] = *update.ClosedToArrival
	}
	if update.ClosedToDeparture != nil {
		set["closed_to_departure"] = *update.ClosedToDeparture
	}
	if update.StopSell != nil {
		set["stop_sell"] = *update.StopSell
	}
	if update.OverbookingLimit != nil {
		set["overbooking_limit"] = *update.OverbookingLimit
	}

	filter := bson.M{
		"property_id":  update.PropertyID,
		"room_type_id": update.RoomTypeID,
		"date": bson.M{
			"$gte": model.Night(update.StartDate),
			"$lt":  model.Night(update.EndDate),
		},
	}

	// Lowering the overbooking limit below current usage would leave rows
	// violating reserved+blocked <= total+overbooking. The caller holds the
	// range lock, and unlocked writers only ever decrease usage, so this
	// check cannot be invalidated between the count and the update.
	if update.OverbookingLimit != nil {
		violating := bson.M{
			"property_id":  update.PropertyID,
			"room_type_id": update.RoomTypeID,
			"date": bson.M{
				"$gte": model.Night(update.StartDate),
				"$lt":  model.Night(update.EndDate),
			},
			"$expr": bson.M{"$gt": bson.A{
				bson.M{"$add": bson.A{"$reserved_rooms", "$blocked_rooms"}},
				bson.M{"$add": bson.A{"$total_rooms", *update.OverbookingLimit}},
			}},
		}
		count, err := r.collection.CountDocuments(ctx, violating)
		if err != nil {
			return 0, fmt.Errorf("failed to check overbooking limit against usage: %w", err)
		}
		if count > 0 {
			return 0, inventoryerrors.ErrInsufficientCapacity
		}
	}

	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("failed to update restrictions: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *mongoLedgerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
