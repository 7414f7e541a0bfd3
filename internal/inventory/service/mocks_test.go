package service

import (
	"context"
	"fmt"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/pkg/config"
	mongotx "roomstay/pkg/db/mongo"
	"roomstay/pkg/logger"
	"roomstay/pkg/model"
	"sort"
	"sync"
	"time"
)

func testConfig() *config.Config {
	return &config.Config{
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		LockTTL:           5 * time.Second,
		LockRetryAttempts: 3,
		LockRetryBackoff:  time.Millisecond,
		HoldTTL:           20 * time.Minute,
		SweepInterval:     30 * time.Second,
		SweepBatchSize:    100,
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

func rowKey(propertyID, roomTypeID string, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", propertyID, roomTypeID, model.Night(date).Format("2006-01-02"))
}

// fakeLedgerRepo mirrors the guarded counter semantics of the Mongo
// implementation against an in-memory map.
type fakeLedgerRepo struct {
	mu   sync.Mutex
	rows map[string]*model.LedgerRow

	applyErr error
	txnCalls int
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{rows: make(map[string]*model.LedgerRow)}
}

func (f *fakeLedgerRepo) seed(row *model.LedgerRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row.Date = model.Night(row.Date)
	row.AvailableRooms = row.TotalRooms - row.ReservedRooms - row.BlockedRooms
	f.rows[rowKey(row.PropertyID, row.RoomTypeID, row.Date)] = row
}

func (f *fakeLedgerRepo) row(propertyID, roomTypeID string, date time.Time) *model.LedgerRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[rowKey(propertyID, roomTypeID, date)]
}

func (f *fakeLedgerRepo) FindRows(ctx context.Context, propertyID, roomTypeID string, startDate, endDate time.Time) ([]*model.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.LedgerRow
	for _, row := range f.rows {
		if row.PropertyID != propertyID || row.RoomTypeID != roomTypeID {
			continue
		}
		if row.Date.Before(model.Night(startDate)) || !row.Date.Before(model.Night(endDate)) {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeLedgerRepo) FindRow(ctx context.Context, propertyID, roomTypeID string, date time.Time) (*model.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[rowKey(propertyID, roomTypeID, date)]
	if !ok {
		return nil, inventoryerrors.ErrWindowNotOpen
	}
	copied := *row
	return &copied, nil
}

func (f *fakeLedgerRepo) EnsureWindow(ctx context.Context, rows []*model.LedgerRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var inserted int64
	for _, row := range rows {
		key := rowKey(row.PropertyID, row.RoomTypeID, row.Date)
		if _, exists := f.rows[key]; exists {
			continue
		}
		f.rows[key] = &model.LedgerRow{
			PropertyID:       row.PropertyID,
			RoomTypeID:       row.RoomTypeID,
			Date:             model.Night(row.Date),
			TotalRooms:       row.TotalRooms,
			AvailableRooms:   row.TotalRooms,
			OverbookingLimit: row.OverbookingLimit,
		}
		inserted++
	}
	return inserted, nil
}

func (f *fakeLedgerRepo) ApplyReservedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error) {
	return f.applyDelta(propertyID, roomTypeID, date, delta, false)
}

func (f *fakeLedgerRepo) ApplyBlockedDelta(ctx context.Context, propertyID, roomTypeID string, date time.Time, delta int) (bool, error) {
	return f.applyDelta(propertyID, roomTypeID, date, delta, true)
}

func (f *fakeLedgerRepo) applyDelta(propertyID, roomTypeID string, date time.Time, delta int, blocked bool) (bool, error) {
	if f.applyErr != nil {
		return false, f.applyErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[rowKey(propertyID, roomTypeID, date)]
	if !ok {
		return false, nil
	}

	field := row.ReservedRooms
	if blocked {
		field = row.BlockedRooms
	}
	if field+delta < 0 {
		return false, nil
	}
	// The capacity ceiling only gates deltas that grow usage; frees always
	// land, even on a row already past the ceiling.
	if delta > 0 && row.ReservedRooms+row.BlockedRooms+delta > row.TotalRooms+row.OverbookingLimit {
		return false, nil
	}

	if blocked {
		row.BlockedRooms += delta
	} else {
		row.ReservedRooms += delta
	}
	row.AvailableRooms -= delta
	return true, nil
}

func (f *fakeLedgerRepo) UpdateRestrictions(ctx context.Context, update *model.LedgerUpdate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if update.OverbookingLimit != nil {
		for _, row := range f.rows {
			if row.PropertyID != update.PropertyID || row.RoomTypeID != update.RoomTypeID {
				continue
			}
			if row.Date.Before(model.Night(update.StartDate)) || !row.Date.Before(model.Night(update.EndDate)) {
				continue
			}
			if row.ReservedRooms+row.BlockedRooms > row.TotalRooms+*update.OverbookingLimit {
				return 0, inventoryerrors.ErrInsufficientCapacity
			}
		}
	}

	var modified int64
	for _, row := range f.rows {
		if row.PropertyID != update.PropertyID || row.RoomTypeID != update.RoomTypeID {
			continue
		}
		if row.Date.Before(model.Night(update.StartDate)) || !row.Date.Before(model.Night(update.EndDate)) {
			continue
		}
		if update.MinStay != nil {
			row.MinStay = update.MinStay
		}
		if update.MaxStay != nil {
			row.MaxStay = update.MaxStay
		}
		if update.ClosedToArrival != nil {
			row.ClosedToArrival = *update.ClosedToArrival
		}
		if update.ClosedToDeparture != nil {
			row.ClosedToDeparture = *update.ClosedToDeparture
		}
		if update.StopSell != nil {
			row.StopSell = *update.StopSell
		}
		if update.OverbookingLimit != nil {
			row.OverbookingLimit = *update.OverbookingLimit
		}
		modified++
	}
	return modified, nil
}

// ExecuteTransaction snapshots the rows and rolls them back when fn fails.
// Callers run it under the range lock, so the snapshot cannot clobber a
// concurrent writer's changes.
func (f *fakeLedgerRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	f.mu.Lock()
	f.txnCalls++
	snapshot := make(map[string]model.LedgerRow, len(f.rows))
	for key, row := range f.rows {
		snapshot[key] = *row
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.rows = make(map[string]*model.LedgerRow, len(snapshot))
		for key, row := range snapshot {
			copied := row
			f.rows[key] = &copied
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

// fakeHoldRepo mirrors the conditional status transitions of the Mongo
// implementation.
type fakeHoldRepo struct {
	mu     sync.Mutex
	holds  map[string]*model.Hold
	nextID int

	createErr error
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{holds: make(map[string]*model.Hold)}
}

func (f *fakeHoldRepo) get(id string) *model.Hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holds[id]
}

func (f *fakeHoldRepo) Create(ctx context.Context, hold *model.Hold) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if hold.ID == "" {
		f.nextID++
		hold.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", f.nextID)
	}
	hold.CreatedAt = time.Now().UTC()
	copied := *hold
	f.holds[hold.ID] = &copied
	return nil
}

func (f *fakeHoldRepo) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hold, ok := f.holds[id]
	if !ok {
		return nil, inventoryerrors.ErrNotFound
	}
	copied := *hold
	return &copied, nil
}

func (f *fakeHoldRepo) ConfirmPending(ctx context.Context, id string, bookingID string, now time.Time) (*model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hold, ok := f.holds[id]
	if !ok {
		return nil, inventoryerrors.ErrNotFound
	}
	if hold.Status != model.HoldPending {
		if hold.Status == model.HoldExpired {
			return nil, inventoryerrors.ErrHoldExpired
		}
		return nil, inventoryerrors.ErrHoldNotPending
	}
	if !hold.ExpiresAt.After(now) {
		return nil, inventoryerrors.ErrHoldExpired
	}

	hold.Status = model.HoldConfirmed
	hold.BookingID = bookingID
	copied := *hold
	return &copied, nil
}

func (f *fakeHoldRepo) ReleasePending(ctx context.Context, id string) (*model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hold, ok := f.holds[id]
	if !ok {
		return nil, inventoryerrors.ErrNotFound
	}

	switch hold.Status {
	case model.HoldPending:
		prior := *hold
		hold.Status = model.HoldReleased
		return &prior, nil
	case model.HoldReleased, model.HoldExpired:
		return nil, nil
	default:
		return nil, inventoryerrors.ErrHoldNotPending
	}
}

func (f *fakeHoldRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Hold
	for _, hold := range f.holds {
		if hold.Status != model.HoldPending || hold.ExpiresAt.After(now) {
			continue
		}
		copied := *hold
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) ClaimExpired(ctx context.Context, id string) (*model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hold, ok := f.holds[id]
	if !ok || hold.Status != model.HoldPending {
		return nil, inventoryerrors.ErrHoldNotPending
	}

	prior := *hold
	hold.Status = model.HoldExpired
	return &prior, nil
}

// fakeLockRepo mirrors the acquire-or-reclaim semantics of the Mongo lock
// collection.
type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]*model.RangeLock

	acquireCalls int
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: make(map[string]*model.RangeLock)}
}

func (f *fakeLockRepo) Acquire(ctx context.Context, lock *model.RangeLock, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acquireCalls++

	existing, ok := f.locks[lock.ID]
	if ok && existing.ExpiresAt.After(now) {
		return inventoryerrors.ErrLockBusy
	}
	copied := *lock
	f.locks[lock.ID] = &copied
	return nil
}

func (f *fakeLockRepo) Release(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.locks[key]
	if !ok || existing.Token != token {
		return inventoryerrors.ErrLockNotHeld
	}
	delete(f.locks, key)
	return nil
}

func (f *fakeLockRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for key, lock := range f.locks {
		if !lock.ExpiresAt.After(now) {
			delete(f.locks, key)
			removed++
		}
	}
	return removed, nil
}

// fakeCatalog serves room types from a map.
type fakeCatalog struct {
	roomTypes map[string]*model.RoomType
	err       error
}

func (f *fakeCatalog) GetRoomType(ctx context.Context, propertyID, roomTypeID string) (*model.RoomType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roomTypes[propertyID+"|"+roomTypeID], nil
}
