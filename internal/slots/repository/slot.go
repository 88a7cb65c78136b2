package repository

import (
	"context"
	"errors"
	"fmt"
	sloterrors "reserva/internal/slots/errors"
	"reserva/pkg/config"
	"reserva/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

// SlotStore is the single shared mutable resource of the reservation core.
// All mutation goes through CompareAndSwap; no store-level lock is ever held
// across round trips.
type SlotStore interface {
	// Get returns the current record or ErrNotFound.
	Get(ctx context.Context, resourceID, date string) (*model.SlotRecord, error)

	// CompareAndSwap applies update's status, lock and booking fields to the
	// record iff its stored version equals expectedVersion. On success the
	// post-write record is returned. On a version mismatch the current
	// record is returned alongside ErrVersionMismatch so callers can
	// re-evaluate without another round trip.
	CompareAndSwap(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error)

	// ScanExpiredLocks returns up to limit locked records whose TTL passed
	// before now, oldest expiry first.
	ScanExpiredLocks(ctx context.Context, now time.Time, limit int) ([]*model.SlotRecord, error)

	// Provision inserts a fresh available record; ErrAlreadyExists when the
	// (resource, date) pair is already present.
	Provision(ctx context.Context, record *model.SlotRecord) error

	ListByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, error)
	CountByResource(ctx context.Context, resourceID string) (int64, error)
}

type mongoSlotStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotStore(cfg *config.Config) SlotStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// EnsureIndexes creates the unique (resource_id, date) index that keeps one
// record per slot, and the scan index for the sweeper. Call once at startup.
func EnsureIndexes(ctx context.Context, cfg *config.Config) error {
	collection := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "lock_expires_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}

func (r *mongoSlotStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// mapStoreErr folds driver-level transport failures into the single
// retryable sentinel the coordinator understands.
func mapStoreErr(err error, op string) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", sloterrors.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (r *mongoSlotStore) Get(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": model.SlotID(resourceID, date)}

	var record model.SlotRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sloterrors.ErrNotFound
		}
		return nil, mapStoreErr(err, "find slot")
	}

	return &record, nil
}

func (r *mongoSlotStore) CompareAndSwap(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":     model.SlotID(resourceID, date),
		"version": expectedVersion,
	}

	set := bson.M{
		"status":     update.Status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	unset := bson.M{}
	if update.LockToken != "" {
		set["lock_token"] = update.LockToken
	} else {
		unset["lock_token"] = ""
	}
	if update.LockExpiresAt != nil {
		set["lock_expires_at"] = update.LockExpiresAt
	} else {
		unset["lock_expires_at"] = ""
	}
	if update.BookingRef != "" {
		set["booking_ref"] = update.BookingRef
	} else {
		unset["booking_ref"] = ""
	}

	change := bson.M{
		"$set":   set,
		"$unset": unset,
		"$inc":   bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.SlotRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, change, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mapStoreErr(err, "update slot")
	}

	// No match: either the record is gone or someone else committed first.
	current, getErr := r.Get(ctx, resourceID, date)
	if getErr != nil {
		return nil, getErr
	}
	return current, fmt.Errorf("%w: expected version %d, found %d", sloterrors.ErrVersionMismatch, expectedVersion, current.Version)
}

func (r *mongoSlotStore) ScanExpiredLocks(ctx context.Context, now time.Time, limit int) ([]*model.SlotRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":          model.StatusLocked,
		"lock_expires_at": bson.M{"$lt": now},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "lock_expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapStoreErr(err, "scan expired locks")
	}
	defer cursor.Close(ctx)

	var records []*model.SlotRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, mapStoreErr(err, "decode expired locks")
	}

	return records, nil
}

func (r *mongoSlotStore) Provision(ctx context.Context, record *model.SlotRecord) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.ID = model.SlotID(record.ResourceID, record.Date)
	record.Status = model.StatusAvailable
	record.Version = 1
	record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	record.UpdatedAt = record.CreatedAt

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sloterrors.ErrAlreadyExists
		}
		return mapStoreErr(err, "provision slot")
	}

	return nil
}

func (r *mongoSlotStore) ListByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"resource_id": resourceID}, opts)
	if err != nil {
		return nil, mapStoreErr(err, "list slots")
	}
	defer cursor.Close(ctx)

	var records []*model.SlotRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, mapStoreErr(err, "decode slots")
	}

	return records, nil
}

func (r *mongoSlotStore) CountByResource(ctx context.Context, resourceID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"resource_id": resourceID})
	if err != nil {
		return 0, mapStoreErr(err, "count slots")
	}

	return count, nil
}
