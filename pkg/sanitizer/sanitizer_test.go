package sanitizer

import (
	"expertconnect/pkg/model"
	"testing"
)

func TestSanitizeReservation(t *testing.T) {
	req := &model.ReservationRequest{
		ExpertID:  "  expert-1 ",
		Date:      " 2024-06-01",
		TimeLabel: "10:00 ",
		Contact: model.Contact{
			Name:  "  Jane   Doe ",
			Email: " Jane@Example.com",
			Phone: "+1 650 253 0000",
		},
		Notes: "  bring   notes  ",
	}

	SanitizeReservation(req)

	if req.ExpertID != "expert-1" || req.Date != "2024-06-01" || req.TimeLabel != "10:00" {
		t.Errorf("slot fields not trimmed: %+v", req)
	}
	if req.Contact.Name != "Jane Doe" {
		t.Errorf("expected name 'Jane Doe', got %q", req.Contact.Name)
	}
	if req.Contact.Email != "jane@example.com" {
		t.Errorf("expected lowercased email, got %q", req.Contact.Email)
	}
	if req.Contact.Phone != "+16502530000" {
		t.Errorf("expected E.164 phone, got %q", req.Contact.Phone)
	}
	if req.Notes != "bring notes" {
		t.Errorf("expected normalized notes, got %q", req.Notes)
	}
}

func TestSanitizeSlotInputs_Dedup(t *testing.T) {
	in := []model.SlotInput{
		{Date: "2024-06-01", TimeLabel: "10:00"},
		{Date: " 2024-06-01 ", TimeLabel: "10:00"},
		{Date: "2024-06-01", TimeLabel: "11:00"},
	}

	out := SanitizeSlotInputs(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique slots, got %d: %+v", len(out), out)
	}
}
