package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookingsrepo "expertconnect/internal/bookings/repository"
	"expertconnect/internal/events"
	"expertconnect/internal/reservations/service"
	"expertconnect/internal/reservations/validator"
	slotsrepo "expertconnect/internal/slots/repository"
	"expertconnect/pkg/client"
	"expertconnect/pkg/config"
	apperrors "expertconnect/pkg/errors"
	httputil "expertconnect/pkg/http"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReservationService struct {
	service.ReservationService
	getAllFunc func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

func (m *mockReservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func TestGetAll_QueryParameters(t *testing.T) {
	var receivedLimit int
	var receivedOffset int64
	h := NewReservationHandler(&mockReservationService{
		getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
			receivedLimit = limit
			receivedOffset = offset
			return []*model.Booking{}, 0, nil
		},
	}, logger.Discard())

	tests := []struct {
		name           string
		queryString    string
		expectHTTPCode int
		expectLimit    int
		expectOffset   int64
	}{
		{name: "defaults", queryString: "", expectHTTPCode: http.StatusOK, expectLimit: 10, expectOffset: 0},
		{name: "explicit values", queryString: "?limit=5&offset=20", expectHTTPCode: http.StatusOK, expectLimit: 5, expectOffset: 20},
		{name: "negative values are normalized", queryString: "?limit=-10&offset=-5", expectHTTPCode: http.StatusOK, expectLimit: 10, expectOffset: 0},
		{name: "limit is capped", queryString: "?limit=100000", expectHTTPCode: http.StatusOK, expectLimit: config.DefaultPaginationLimit, expectOffset: 0},
		{name: "invalid limit", queryString: "?limit=abc", expectHTTPCode: http.StatusBadRequest},
		{name: "invalid offset", queryString: "?offset=xyz", expectHTTPCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receivedLimit, receivedOffset = -1, -1
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/all"+tt.queryString, nil)
			w := httptest.NewRecorder()

			h.GetAll(w, req, httprouter.Params{})

			if w.Code != tt.expectHTTPCode {
				t.Fatalf("expected status %d, got %d", tt.expectHTTPCode, w.Code)
			}
			if tt.expectHTTPCode != http.StatusOK {
				if receivedLimit != -1 {
					t.Error("service should not be called for invalid parameters")
				}
				return
			}
			if receivedLimit != tt.expectLimit || receivedOffset != tt.expectOffset {
				t.Errorf("expected limit=%d offset=%d, got limit=%d offset=%d",
					tt.expectLimit, tt.expectOffset, receivedLimit, receivedOffset)
			}
		})
	}
}

const (
	expertID = "expert-1"
	slotDate = "2024-06-01"
)

func newTestServer(t *testing.T) (*client.ReservationClient, *events.Bus) {
	t.Helper()

	slots := slotsrepo.NewMemorySlotRepository()
	bus := events.NewBus()
	cfg := &config.Config{
		Log:                      logger.Discard(),
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             5 * time.Second,
		ReleaseMaxAttempts:       3,
		ReleaseBackoff:           time.Millisecond,
		EnforceStatusTransitions: true,
	}
	svc := service.NewReservationService(slots, bookingsrepo.NewMemoryBookingRepository(),
		validator.NewReservationValidator(), bus, cfg)

	router := httprouter.New()
	NewReservationHandler(svc, cfg.Log).RegisterRoutes(router)
	NewHealthHandler(client.NewClient(), cfg.Log).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	rc := client.NewReservationClient(srv.URL)
	resp, err := rc.CreateSlots(context.Background(), expertID, model.SlotBatch{Slots: []model.SlotInput{
		{Date: slotDate, TimeLabel: "09:00"},
		{Date: slotDate, TimeLabel: "10:00"},
	}})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	return rc, bus
}

func reservationBody(label, email string) map[string]any {
	return map[string]any{
		"expert_id": expertID,
		"date":      slotDate,
		"time":      label,
		"contact": map[string]string{
			"name":  "Jane Doe",
			"email": email,
			"phone": "+16502530000",
		},
	}
}

type bookingEnvelope struct {
	Data model.Booking `json:"data"`
}

func TestReservationFlow(t *testing.T) {
	rc, bus := newTestServer(t)
	ctx := context.Background()
	sub := bus.Subscribe(8, events.ForExpert(expertID))
	defer sub.Close()

	resp, err := rc.Reserve(ctx, reservationBody("10:00", "jane@example.com"), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var created bookingEnvelope
	require.NoError(t, resp.DecodeJSON(&created))
	assert.Equal(t, model.StatusConfirmed, created.Data.Status)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, model.SlotReserved, ev.NewState)
	case <-time.After(time.Second):
		t.Fatal("no reservation event")
	}

	resp, err = rc.Reserve(ctx, reservationBody("10:00", "other@example.com"), "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp httputil.ErrorResponse
	require.NoError(t, resp.DecodeJSON(&errResp))
	assert.Equal(t, apperrors.CodeSlotUnavailable, errResp.Code)

	resp, err = rc.GetByID(ctx, created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = rc.FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found struct {
		Data []model.Booking `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&found))
	assert.Len(t, found.Data, 1)

	resp, err = rc.SetStatus(ctx, created.Data.ID, string(model.StatusCancelled))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	resp, err = rc.SetStatus(ctx, created.Data.ID, string(model.StatusConfirmed))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = rc.ListSlots(ctx, expertID, slotDate)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots struct {
		Data []model.Slot `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&slots))
	require.Len(t, slots.Data, 2)
	for _, s := range slots.Data {
		assert.Equal(t, model.SlotFree, s.State, "slot %s", s.TimeLabel)
	}
}

func TestReserve_ErrorResponses(t *testing.T) {
	rc, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		body       any
		expectCode int
		expectErr  string
	}{
		{
			name:       "invalid email",
			body:       reservationBody("09:00", "nope"),
			expectCode: http.StatusUnprocessableEntity,
			expectErr:  apperrors.CodeValidation,
		},
		{
			name:       "unknown slot",
			body:       reservationBody("23:00", "a@example.com"),
			expectCode: http.StatusConflict,
			expectErr:  apperrors.CodeSlotUnavailable,
		},
		{
			name:       "malformed body",
			body:       "not an object",
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := rc.Reserve(ctx, tt.body, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expectCode, resp.StatusCode, string(resp.Body))
			if tt.expectErr != "" {
				var errResp httputil.ErrorResponse
				require.NoError(t, resp.DecodeJSON(&errResp))
				assert.Equal(t, tt.expectErr, errResp.Code)
			}
		})
	}
}

func TestLookupErrors(t *testing.T) {
	rc, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := rc.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = rc.SetStatus(ctx, "missing", string(model.StatusCancelled))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = rc.FindByEmail(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = rc.ListSlots(ctx, expertID, "01/06/2024")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(client.NewClient(), logger.Discard())

	tests := []struct {
		name   string
		path   string
		handle httprouter.Handle
		status string
	}{
		{name: "health", path: "/health", handle: h.Health, status: "ok"},
		{name: "ready without stores", path: "/ready", handle: h.Ready, status: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handle(w, httptest.NewRequest(http.MethodGet, tt.path, nil), nil)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			assert.Contains(t, w.Body.String(), `"status":"`+tt.status+`"`)
		})
	}
}
