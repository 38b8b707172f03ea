package events

import (
	"encoding/json"
	"errors"
	"expertconnect/pkg/logger"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

const StreamPath = "/api/v1/events"

// StreamHandler pushes bus events to HTTP clients as Server-Sent Events. A client
// only receives events published while it is connected.
type StreamHandler struct {
	bus       *Bus
	buffer    int
	keepAlive time.Duration
	log       *logger.Logger
}

func NewStreamHandler(bus *Bus, buffer int, keepAlive time.Duration, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		buffer:    buffer,
		keepAlive: keepAlive,
		log:       log,
	}
}

func (h *StreamHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(StreamPath, h.Stream)
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("Failed to clear write deadline for event stream", "error", err)
	}

	expertID := r.URL.Query().Get("expert_id")
	sub := h.bus.Subscribe(h.buffer, ForExpert(expertID))
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.Error("Event stream requires a flushable response writer", "error", err)
		return
	}

	h.log.Info("Event stream opened", "expert_id", expertID, "subscribers", h.bus.SubscriberCount())

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info("Event stream closed by client", "expert_id", expertID, "dropped", sub.Dropped())
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("Failed to encode slot event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: slot\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
