package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const IdempotencyHeader = "Idempotency-Key"

type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseURL string) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// Reserve posts a reservation. A non-empty idempotencyKey lets a retried request replay the
// first response instead of racing the slot a second time.
func (c *ReservationClient) Reserve(ctx context.Context, body any, idempotencyKey string) (*Response, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	return c.httpClient.request(ctx, http.MethodPost, "/api/v1/bookings", body, headers)
}

func (c *ReservationClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

func (c *ReservationClient) FindByEmail(ctx context.Context, email string) (*Response, error) {
	q := url.Values{}
	q.Set("email", email)
	return c.httpClient.GET(ctx, "/api/v1/bookings?"+q.Encode())
}

func (c *ReservationClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *ReservationClient) SetStatus(ctx context.Context, id string, status string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/status"
	return c.httpClient.PATCH(ctx, path, map[string]string{"status": status})
}

func (c *ReservationClient) ListSlots(ctx context.Context, expertID, date string) (*Response, error) {
	path := "/api/v1/experts/" + url.PathEscape(expertID) + "/slots"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	return c.httpClient.GET(ctx, path)
}

func (c *ReservationClient) CreateSlots(ctx context.Context, expertID string, body any) (*Response, error) {
	path := "/api/v1/experts/" + url.PathEscape(expertID) + "/slots"
	return c.httpClient.POST(ctx, path, body)
}
