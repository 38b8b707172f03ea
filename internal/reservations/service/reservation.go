package service

import (
	"context"
	"errors"
	bookingserrors "expertconnect/internal/bookings/errors"
	bookingsrepo "expertconnect/internal/bookings/repository"
	"expertconnect/internal/events"
	reservationserrors "expertconnect/internal/reservations/errors"
	"expertconnect/internal/reservations/validator"
	"expertconnect/internal/slots/generator"
	slotsrepo "expertconnect/internal/slots/repository"
	"expertconnect/pkg/config"
	apperrors "expertconnect/pkg/errors"
	"expertconnect/pkg/model"
	"expertconnect/pkg/sanitizer"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const slotUnavailableMessage = "The selected slot is no longer available"

type ReservationService interface {
	Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Booking, error)
	SetStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)

	ListSlots(ctx context.Context, expertID, date string) ([]model.Slot, error)
	CreateSlots(ctx context.Context, expertID string, batch *model.SlotBatch) (int, error)

	FindByEmail(ctx context.Context, email string) ([]*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

type reservationService struct {
	slots     slotsrepo.SlotRepository
	bookings  bookingsrepo.BookingRepository
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	slots slotsrepo.SlotRepository,
	bookings bookingsrepo.BookingRepository,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		slots:     slots,
		bookings:  bookings,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Reserve claims the slot first and records the booking second. The booking id
// is chosen up front and held on the slot as its owner, so the slot can be
// released again whenever the ledger rejects the booking or the store cannot
// say whether the claim went through.
func (s *reservationService) Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Booking, error) {
	sanitizer.SanitizeReservation(req)

	if err := s.validator.ValidateReservation(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"expert_id", req.ExpertID,
			"date", req.Date,
			"time", req.TimeLabel,
			"error", err,
		)
		return nil, validationError("Reservation validation failed", err)
	}

	key := req.SlotKey()
	bookingID := uuid.NewString()
	reserved, err := s.reserveSlot(ctx, key, bookingID)
	if err != nil {
		return nil, apperrors.Internal("Failed to reserve slot", err)
	}
	if !reserved {
		s.cfg.Log.Info("Slot not available", "slot", key.String())
		return nil, apperrors.SlotUnavailable(slotUnavailableMessage, reservationserrors.ErrSlotUnavailable).
			WithDetails(slotDetails(key))
	}

	booking, err := s.bookings.Insert(ctx, &model.Booking{
		ID:        bookingID,
		ExpertID:  req.ExpertID,
		Contact:   req.Contact,
		Date:      req.Date,
		TimeLabel: req.TimeLabel,
		Status:    model.StatusConfirmed,
		Notes:     req.Notes,
	})
	if err != nil {
		s.releaseSlot(ctx, key, bookingID, "booking insert failed")

		if errors.Is(err, bookingserrors.ErrDuplicateBooking) {
			s.cfg.Log.Warn("Double booking detected", "slot", key.String())
			return nil, apperrors.DuplicateBooking(slotUnavailableMessage, reservationserrors.ErrDuplicateBooking).
				WithDetails(slotDetails(key))
		}
		s.cfg.Log.Error("Failed to record booking", "slot", key.String(), "error", err)
		return nil, apperrors.Internal("Failed to record booking", err)
	}

	s.publish(ctx, model.NewReservationEvent(key, model.SlotReserved, booking.ID))

	s.cfg.Log.Info("Slot reserved successfully",
		"booking_id", booking.ID,
		"expert_id", booking.ExpertID,
		"date", booking.Date,
		"time", booking.TimeLabel,
	)
	return booking, nil
}

// SetStatus moves a booking to status. With transition enforcement on, only the
// edges in transitions are accepted and repeating the current status is a
// no-op. Leaving the active statuses frees the slot; returning to them claims
// it again.
func (s *reservationService) SetStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatus(&model.StatusUpdate{Status: status}); err != nil {
		return nil, validationError("Status validation failed", err)
	}

	current, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.bookingLookupError(id, err)
	}

	if current.Status == status {
		return current, nil
	}
	if s.cfg.EnforceStatusTransitions && !CanTransition(current.Status, status) {
		s.cfg.Log.Warn("Illegal booking status transition",
			"booking_id", id,
			"from", current.Status,
			"to", status,
		)
		return nil, apperrors.Wrap(reservationserrors.ErrIllegalTransition, apperrors.CodeConflict,
			fmt.Sprintf("Cannot change booking status from %s to %s", current.Status, status), http.StatusConflict)
	}

	key := current.SlotKey()
	reclaim := status.Active() && !current.Status.Active()
	if reclaim {
		reserved, err := s.reserveSlot(ctx, key, id)
		if err != nil {
			return nil, apperrors.Internal("Failed to reserve slot", err)
		}
		if !reserved {
			return nil, apperrors.SlotUnavailable(slotUnavailableMessage, reservationserrors.ErrSlotUnavailable).
				WithDetails(slotDetails(key))
		}
	}

	updated, err := s.bookings.CompareAndSetStatus(ctx, id, current.Status, status)
	if err != nil {
		if reclaim {
			s.releaseSlot(ctx, key, id, "status update failed")
		}
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, bookingserrors.ErrStatusChanged):
			return nil, apperrors.Conflict("Booking status was changed by another request, retry with the current status")
		case errors.Is(err, bookingserrors.ErrDuplicateBooking):
			return nil, apperrors.DuplicateBooking(slotUnavailableMessage, reservationserrors.ErrDuplicateBooking)
		}
		s.cfg.Log.Error("Failed to update booking status", "booking_id", id, "error", err)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	switch {
	case reclaim:
		s.publish(ctx, model.NewReservationEvent(key, model.SlotReserved, id))
	case current.Status.Active() && !status.Active():
		if s.releaseSlot(ctx, key, id, "booking cancelled") {
			s.publish(ctx, model.NewReservationEvent(key, model.SlotFree, id))
		}
	}

	s.cfg.Log.Info("Booking status updated",
		"booking_id", id,
		"from", current.Status,
		"to", status,
	)
	return updated, nil
}

// reserveSlot claims key for owner. A store error does not tell whether the
// claim was applied before the failure, so the claim is undone by owner; the
// release cannot free a slot someone else holds.
func (s *reservationService) reserveSlot(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	reserved, err := s.slots.TryReserve(ctx, key, owner)
	if err == nil {
		return reserved, nil
	}

	s.cfg.Log.Error("Slot reservation outcome unknown, releasing",
		"slot", key.String(),
		"owner", owner,
		"error", err,
	)
	s.releaseSlot(ctx, key, owner, "reservation outcome unknown")
	return false, err
}

// releaseSlot frees key with bounded retries. It is detached from the caller's
// cancellation so a disconnected client cannot strand a reserved slot. When
// every attempt fails the slot stays reserved without an active booking and is
// logged for reconciliation.
func (s *reservationService) releaseSlot(ctx context.Context, key model.SlotKey, owner, reason string) bool {
	ctx = context.WithoutCancel(ctx)
	backoff := s.cfg.ReleaseBackoff

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ReleaseMaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		released, err := s.slots.Release(attemptCtx, key, owner)
		cancel()

		if err == nil {
			if !released {
				s.cfg.Log.Warn("Slot not held by owner on release", "slot", key.String(), "owner", owner, "reason", reason)
			}
			return released
		}

		lastErr = err
		s.cfg.Log.Warn("Slot release attempt failed",
			"slot", key.String(),
			"attempt", attempt,
			"max_attempts", s.cfg.ReleaseMaxAttempts,
			"error", err,
		)
		if attempt < s.cfg.ReleaseMaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	s.cfg.Log.Error("Slot release failed, reconciliation required",
		"slot", key.String(),
		"owner", owner,
		"expert_id", key.ExpertID,
		"date", key.Date,
		"time", key.TimeLabel,
		"reason", reason,
		"error", lastErr,
	)
	return false
}

// publish never fails the operation that produced the event.
func (s *reservationService) publish(ctx context.Context, ev model.ReservationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.cfg.Log.Warn("Failed to publish slot event",
			"slot", ev.SlotKey().String(),
			"new_state", ev.NewState,
			"error", err,
		)
	}
}

func (s *reservationService) ListSlots(ctx context.Context, expertID, date string) ([]model.Slot, error) {
	expertID = strings.TrimSpace(expertID)
	if expertID == "" {
		return nil, apperrors.InvalidInput("Expert ID cannot be empty")
	}
	if err := s.validator.ValidateDate(date); err != nil {
		return nil, validationError("Invalid date filter", err)
	}

	slots, err := s.slots.ListByExpert(ctx, expertID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to list slots", "expert_id", expertID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve slots", err)
	}
	return slots, nil
}

func (s *reservationService) CreateSlots(ctx context.Context, expertID string, batch *model.SlotBatch) (int, error) {
	expertID = strings.TrimSpace(expertID)
	if expertID == "" {
		return 0, apperrors.InvalidInput("Expert ID cannot be empty")
	}

	batch.Slots = sanitizer.SanitizeSlotInputs(batch.Slots)
	if err := s.validator.ValidateSlotBatch(batch); err != nil {
		s.cfg.Log.Warn("Slot batch validation failed", "expert_id", expertID, "error", err)
		return 0, validationError("Slot batch validation failed", err)
	}

	created, err := s.slots.Upsert(ctx, generator.FromInputs(expertID, batch.Slots))
	if err != nil {
		s.cfg.Log.Error("Failed to create slots", "expert_id", expertID, "error", err)
		return 0, apperrors.Internal("Failed to create slots", err)
	}

	s.cfg.Log.Info("Slots created", "expert_id", expertID, "requested", len(batch.Slots), "created", created)
	return created, nil
}

func (s *reservationService) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Email is required")
	}

	bookings, err := s.bookings.FindByEmail(ctx, email)
	if err != nil {
		s.cfg.Log.Error("Failed to find bookings by email", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.bookingLookupError(id, err)
	}
	return booking, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.bookings.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		bookings, err = s.bookings.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *reservationService) bookingLookupError(id string, err error) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve booking", err)
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, map[string]any{"errors": verrs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func slotDetails(key model.SlotKey) map[string]any {
	return map[string]any{
		"expert_id": key.ExpertID,
		"date":      key.Date,
		"time":      key.TimeLabel,
	}
}
