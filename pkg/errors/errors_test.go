package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSlotTaken = errors.New("slot taken")

func TestConstructors(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{"new", New(CodeValidation, "bad", http.StatusUnprocessableEntity), CodeValidation, http.StatusUnprocessableEntity, "bad"},
		{"wrap", Wrap(cause, CodeInternal, "store failed", http.StatusInternalServerError), CodeInternal, http.StatusInternalServerError, "store failed"},
		{"not found with id", NotFoundWithID("Booking", "b-1"), CodeNotFound, http.StatusNotFound, "Booking not found"},
		{"validation", Validation("invalid", nil), CodeValidation, http.StatusUnprocessableEntity, "invalid"},
		{"invalid input", InvalidInput("malformed body"), CodeInvalidInput, http.StatusBadRequest, "malformed body"},
		{"conflict", Conflict("illegal transition"), CodeConflict, http.StatusConflict, "illegal transition"},
		{"slot unavailable", SlotUnavailable("slot is taken", errSlotTaken), CodeSlotUnavailable, http.StatusConflict, "slot is taken"},
		{"duplicate booking", DuplicateBooking("slot is taken", errSlotTaken), CodeDuplicateBooking, http.StatusConflict, "slot is taken"},
		{"internal", Internal("boom", cause), CodeInternal, http.StatusInternalServerError, "boom"},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout, "too slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := &AppError{Code: CodeNotFound, Message: "booking not found"}
	if got := plain.Error(); got != "NOT_FOUND: booking not found" {
		t.Errorf("Error() = %q", got)
	}

	caused := Internal("ledger write failed", errors.New("socket closed"))
	if got := caused.Error(); got != "INTERNAL_ERROR: ledger write failed (caused by: socket closed)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "b-123")
	if err.Details["id"] != "b-123" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("reserve: %w", SlotUnavailable("slot is taken", errSlotTaken))

	if !errors.Is(err, errSlotTaken) {
		t.Error("errors.Is should reach the cause through the AppError")
	}
	if !IsAppError(err) {
		t.Error("IsAppError should see through fmt wrapping")
	}
	if !HasCode(err, CodeSlotUnavailable) {
		t.Error("HasCode should match SLOT_UNAVAILABLE")
	}
	if HasCode(err, CodeDuplicateBooking) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Error("HasCode should be false for non-AppErrors")
	}
}

func TestAsAppError(t *testing.T) {
	dup := DuplicateBooking("slot is taken", errSlotTaken)
	if got := AsAppError(fmt.Errorf("wrapped: %w", dup)); got != dup {
		t.Errorf("AsAppError should return the wrapped AppError, got %v", got)
	}

	plain := errors.New("disk full")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("plain errors should map to internal, got %s/%d", got.Code, got.StatusCode())
	}
	if !errors.Is(got, plain) {
		t.Error("internal conversion should keep the original error")
	}
}
