package handler

import (
	"context"
	"net/http"
	"time"

	"expertconnect/pkg/client"
	httputil "expertconnect/pkg/http"
	"expertconnect/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Databases map[string]string `json:"databases,omitempty"`
}

type HealthHandler struct {
	client *client.Client
	log    *logger.Logger
}

func NewHealthHandler(client *client.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		client: client,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

// Ready pings every configured store. A service running on the memory
// backends has none and is always ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string)
	healthy := true
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			h.log.Error("Database health check failed",
				"database", name,
				"error", err,
				"path", r.URL.Path,
			)
			status[name] = "error"
			healthy = false
			return
		}
		status[name] = "ok"
	}

	if h.client != nil {
		if h.client.Mongo != nil {
			check("mongo", func(ctx context.Context) error { return h.client.Mongo.Ping(ctx, nil) })
		}
		if h.client.Redis != nil {
			check("redis", func(ctx context.Context) error { return h.client.Redis.Ping(ctx).Err() })
		}
		if h.client.Postgres != nil {
			check("postgres", h.client.Postgres.Ping)
		}
	}

	code, resp := http.StatusOK, HealthResponse{Status: "ready", Databases: status}
	if !healthy {
		code, resp.Status = http.StatusServiceUnavailable, "unavailable"
	}
	if err := httputil.WriteJSON(w, code, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
