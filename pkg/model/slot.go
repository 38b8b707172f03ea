package model

import (
	"fmt"
	"regexp"
)

// DateLayout is the calendar date format of a slot.
const DateLayout = "2006-01-02"

// TimeLabelRegex matches a 24-hour HH:MM slot label.
var TimeLabelRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type SlotState string

const (
	SlotFree     SlotState = "free"
	SlotReserved SlotState = "reserved"
)

// SlotKey is the identity triple of a slot. It is unique within its expert.
type SlotKey struct {
	ExpertID  string `json:"expert_id" bson:"expert_id"`
	Date      string `json:"date" bson:"date"`
	TimeLabel string `json:"time" bson:"time"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ExpertID, k.Date, k.TimeLabel)
}

// Slot is one bookable time. Owner is the token of the reservation holding a
// reserved slot, normally the booking id; it is never exposed over the API.
type Slot struct {
	ExpertID  string    `json:"expert_id" bson:"-"`
	Date      string    `json:"date" bson:"date"`
	TimeLabel string    `json:"time" bson:"time"`
	State     SlotState `json:"state" bson:"state"`
	Owner     string    `json:"-" bson:"owner,omitempty"`
}

func (s Slot) Key() SlotKey {
	return SlotKey{ExpertID: s.ExpertID, Date: s.Date, TimeLabel: s.TimeLabel}
}

type SlotBatch struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,max=500,dive"`
}

type SlotInput struct {
	Date      string `json:"date" validate:"required,slot_date"`
	TimeLabel string `json:"time" validate:"required,slot_time"`
}
