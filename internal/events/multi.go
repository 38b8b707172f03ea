package events

import (
	"context"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"
)

// MultiPublisher forwards each event to every sink. A failing sink is logged and
// does not stop delivery to the others.
type MultiPublisher struct {
	sinks []Publisher
	log   *logger.Logger
}

func NewMultiPublisher(log *logger.Logger, sinks ...Publisher) *MultiPublisher {
	return &MultiPublisher{sinks: sinks, log: log}
}

func (m *MultiPublisher) Publish(ctx context.Context, ev model.ReservationEvent) error {
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			m.log.Warn("event sink failed",
				"expert_id", ev.ExpertID,
				"date", ev.Date,
				"time", ev.TimeLabel,
				"new_state", ev.NewState,
				"error", err,
			)
		}
	}
	return nil
}
