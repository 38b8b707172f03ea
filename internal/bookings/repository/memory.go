package repository

import (
	"context"
	bookingserrors "expertconnect/internal/bookings/errors"
	"expertconnect/pkg/model"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
	order    []string
	// active maps a slot key to the id of its non-cancelled booking.
	active map[model.SlotKey]string
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]*model.Booking),
		active:   make(map[model.SlotKey]string),
	}
}

func (r *memoryBookingRepository) Insert(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := *booking
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	if !b.Status.Valid() {
		return nil, bookingserrors.ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := b.SlotKey()
	if b.Status.Active() {
		if _, taken := r.active[key]; taken {
			return nil, bookingserrors.ErrDuplicateBooking
		}
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	} else if _, exists := r.bookings[b.ID]; exists {
		return nil, bookingserrors.ErrDuplicateBooking
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt

	r.bookings[b.ID] = &b
	r.order = append(r.order, b.ID)
	if b.Status.Active() {
		r.active[key] = b.ID
	}

	out := b
	return &out, nil
}

func (r *memoryBookingRepository) SetStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	return r.setStatus(ctx, id, "", status)
}

func (r *memoryBookingRepository) CompareAndSetStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	return r.setStatus(ctx, id, from, to)
}

// setStatus skips the current-status guard when from is empty.
func (r *memoryBookingRepository) setStatus(ctx context.Context, id string, from, status model.BookingStatus) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, bookingserrors.ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if from != "" && b.Status != from {
		return nil, bookingserrors.ErrStatusChanged
	}

	key := b.SlotKey()
	if status.Active() && !b.Status.Active() {
		if holder, taken := r.active[key]; taken && holder != id {
			return nil, bookingserrors.ErrDuplicateBooking
		}
		r.active[key] = id
	}
	if !status.Active() && r.active[key] == id {
		delete(r.active, key)
	}

	b.Status = status
	b.UpdatedAt = now()

	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*model.Booking{}
	for i := len(r.order) - 1; i >= 0; i-- {
		b := r.bookings[r.order[i]]
		if b.Contact.Email == email {
			out := *b
			result = append(result, &out)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*model.Booking{}
	if offset < 0 || offset >= int64(len(r.order)) {
		return result, nil
	}
	for _, id := range r.order[offset:] {
		if limit > 0 && len(result) >= limit {
			break
		}
		out := *r.bookings[id]
		result = append(result, &out)
	}
	return result, nil
}

func (r *memoryBookingRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bookings)), nil
}
