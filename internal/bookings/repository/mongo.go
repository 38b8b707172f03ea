package repository

import (
	"context"
	"errors"
	bookingserrors "expertconnect/internal/bookings/errors"
	"expertconnect/pkg/config"
	"expertconnect/pkg/model"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	// ActiveSlotIndexName is the partial unique index over (expert_id, date, time)
	// restricted to documents with active: true.
	ActiveSlotIndexName = "active_slot_unique"
)

// bookingDocument carries the derived active flag the partial unique index filters on.
type bookingDocument struct {
	model.Booking `bson:",inline"`
	Active        bool `bson:"active"`
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	b := *booking
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	if !b.Status.Valid() {
		return nil, bookingserrors.ErrInvalidStatus
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt

	_, err := r.collection.InsertOne(ctx, bookingDocument{Booking: b, Active: b.Status.Active()})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrDuplicateBooking
		}
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) SetStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	return r.setStatus(ctx, id, "", status)
}

func (r *mongoBookingRepository) CompareAndSetStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	return r.setStatus(ctx, id, from, to)
}

func (r *mongoBookingRepository) setStatus(ctx context.Context, id string, from, status model.BookingStatus) (*model.Booking, error) {
	if !status.Valid() {
		return nil, bookingserrors.ErrInvalidStatus
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if from != "" {
		filter["status"] = from
	}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"active":     status.Active(),
			"updated_at": now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return &doc.Booking, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, bookingserrors.ErrDuplicateBooking
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if from == "" {
		return nil, bookingserrors.ErrNotFound
	}

	// The guarded filter missed: tell a missing booking from a changed one.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return nil, bookingserrors.ErrStatusChanged
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bookingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &doc.Booking, nil
}

func (r *mongoBookingRepository) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"contact.email": email}, opts)
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(docs))
	for i := range docs {
		bookings = append(bookings, &docs[i].Booking)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
