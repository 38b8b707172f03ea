package validator

import (
	"errors"
	"expertconnect/pkg/model"
	"testing"
)

func validRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		ExpertID:  "expert-1",
		Date:      "2024-06-01",
		TimeLabel: "10:00",
		Contact: model.Contact{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Phone: "+16502530000",
		},
	}
}

func TestValidateReservation(t *testing.T) {
	v := NewReservationValidator()

	tests := []struct {
		name      string
		mutate    func(*model.ReservationRequest)
		wantField string
	}{
		{name: "valid", mutate: func(*model.ReservationRequest) {}},
		{name: "missing expert", mutate: func(r *model.ReservationRequest) { r.ExpertID = "" }, wantField: "expert_id"},
		{name: "bad date", mutate: func(r *model.ReservationRequest) { r.Date = "06/01/2024" }, wantField: "date"},
		{name: "impossible date", mutate: func(r *model.ReservationRequest) { r.Date = "2024-02-30" }, wantField: "date"},
		{name: "bad time", mutate: func(r *model.ReservationRequest) { r.TimeLabel = "10am" }, wantField: "time"},
		{name: "hour out of range", mutate: func(r *model.ReservationRequest) { r.TimeLabel = "25:00" }, wantField: "time"},
		{name: "missing name", mutate: func(r *model.ReservationRequest) { r.Contact.Name = "" }, wantField: "contact.name"},
		{name: "bad email", mutate: func(r *model.ReservationRequest) { r.Contact.Email = "not-an-email" }, wantField: "contact.email"},
		{name: "missing phone", mutate: func(r *model.ReservationRequest) { r.Contact.Phone = "" }, wantField: "contact.phone"},
		{name: "notes optional", mutate: func(r *model.ReservationRequest) { r.Notes = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateReservation(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %+v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	v := NewReservationValidator()

	if err := v.ValidateStatus(&model.StatusUpdate{Status: model.StatusCancelled}); err != nil {
		t.Errorf("expected Cancelled to be valid, got %v", err)
	}

	err := v.ValidateStatus(&model.StatusUpdate{Status: "Archived"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Field != "status" {
		t.Fatalf("expected status validation error, got %v", err)
	}
	if verrs[0].Message != "must be one of: Pending, Confirmed, Completed, Cancelled" {
		t.Errorf("unexpected message %q", verrs[0].Message)
	}
}

func TestValidateSlotBatch(t *testing.T) {
	v := NewReservationValidator()

	if err := v.ValidateSlotBatch(&model.SlotBatch{}); err == nil {
		t.Error("expected error for empty batch")
	}

	err := v.ValidateSlotBatch(&model.SlotBatch{Slots: []model.SlotInput{
		{Date: "2024-06-01", TimeLabel: "09:00"},
		{Date: "2024-06-01", TimeLabel: "9"},
	}})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 1 || verrs[0].Field != "slots[1].time" {
		t.Errorf("expected one error on slots[1].time, got %v", err)
	}
}

func TestValidateDate(t *testing.T) {
	v := NewReservationValidator()

	if err := v.ValidateDate(""); err != nil {
		t.Errorf("empty date filter should be valid, got %v", err)
	}
	if err := v.ValidateDate("2024-06-01"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	if err := v.ValidateDate("tomorrow"); err == nil {
		t.Error("expected error for invalid date")
	}
}
