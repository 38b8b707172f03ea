package model

import "time"

// ReservationEvent tells observers that a slot changed state. It is never persisted.
type ReservationEvent struct {
	ExpertID   string    `json:"expert_id"`
	Date       string    `json:"date"`
	TimeLabel  string    `json:"time"`
	NewState   SlotState `json:"new_state"`
	BookingID  string    `json:"booking_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ReservationEvent) SlotKey() SlotKey {
	return SlotKey{ExpertID: e.ExpertID, Date: e.Date, TimeLabel: e.TimeLabel}
}

func NewReservationEvent(key SlotKey, state SlotState, bookingID string) ReservationEvent {
	return ReservationEvent{
		ExpertID:   key.ExpertID,
		Date:       key.Date,
		TimeLabel:  key.TimeLabel,
		NewState:   state,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
	}
}
