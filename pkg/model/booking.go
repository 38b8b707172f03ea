package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCompleted BookingStatus = "Completed"
	StatusCancelled BookingStatus = "Cancelled"
)

// ActiveStatuses are the statuses that hold a slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Active() bool {
	return s.Valid() && s != StatusCancelled
}

type Contact struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" bson:"phone" validate:"required,min=5,max=20"`
}

type Booking struct {
	ID        string        `json:"id" bson:"_id"`
	ExpertID  string        `json:"expert_id" bson:"expert_id"`
	Contact   Contact       `json:"contact" bson:"contact"`
	Date      string        `json:"date" bson:"date"`
	TimeLabel string        `json:"time" bson:"time"`
	Status    BookingStatus `json:"status" bson:"status"`
	Notes     string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) SlotKey() SlotKey {
	return SlotKey{ExpertID: b.ExpertID, Date: b.Date, TimeLabel: b.TimeLabel}
}

type ReservationRequest struct {
	ExpertID  string  `json:"expert_id" validate:"required,min=1,max=64"`
	Date      string  `json:"date" validate:"required,slot_date"`
	TimeLabel string  `json:"time" validate:"required,slot_time"`
	Contact   Contact `json:"contact" validate:"required"`
	Notes     string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *ReservationRequest) SlotKey() SlotKey {
	return SlotKey{ExpertID: r.ExpertID, Date: r.Date, TimeLabel: r.TimeLabel}
}

type StatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=Pending Confirmed Completed Cancelled"`
}
