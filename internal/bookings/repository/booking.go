package repository

import (
	"context"
	"expertconnect/pkg/model"
	"time"
)

// BookingRepository is the ledger of reservations. For any slot key at most one
// booking with a non-cancelled status exists; Insert enforces it.
type BookingRepository interface {
	// Insert assigns an id when none is set, stamps timestamps, defaults the
	// status to Confirmed and stores the booking. ErrDuplicateBooking when the
	// slot already has an active booking or the id is taken.
	Insert(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	// SetStatus overwrites the status. ErrNotFound for unknown ids. Re-activating
	// a cancelled booking whose slot is taken returns ErrDuplicateBooking.
	SetStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
	// CompareAndSetStatus is SetStatus guarded by the current status. It returns
	// ErrStatusChanged when the booking is no longer in from.
	CompareAndSetStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// FindByEmail returns the contact's bookings newest first.
	FindByEmail(ctx context.Context, email string) ([]*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// withTimeout bounds ctx by timeout without extending an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
