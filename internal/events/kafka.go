package events

import (
	"context"
	"expertconnect/pkg/kafka"
	kafka_config "expertconnect/pkg/kafka/config"
	kafka_middleware "expertconnect/pkg/kafka/middleware"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"
	"fmt"
)

const (
	schemaVersion   = "1"
	eventTypePrefix = "slot."
)

// KafkaPublisher writes events to a topic keyed by slot, so all events for one
// slot share a partition and keep their order.
type KafkaPublisher struct {
	producer   *kafka.Producer
	instanceID string
}

func NewKafkaPublisher(cfg *kafka_config.Config, topic, instanceID string, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(cfg, topic, log)
	if err != nil {
		return nil, fmt.Errorf("create event producer: %w", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))

	return &KafkaPublisher{producer: producer, instanceID: instanceID}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev model.ReservationEvent) error {
	msg, err := encodeEvent(ev, p.instanceID)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func encodeEvent(ev model.ReservationEvent, source string) (kafka.Message, error) {
	msg, err := kafka.NewMessage().
		WithKey(ev.SlotKey().String()).
		WithValue(ev).
		WithEventType(eventTypePrefix + string(ev.NewState)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode slot event: %w", err)
	}
	return msg, nil
}

// KafkaRelay delivers events published by other instances to the local bus.
// Each instance consumes in its own group, so every instance sees every event.
type KafkaRelay struct {
	consumer   *kafka.Consumer
	local      Publisher
	instanceID string
	log        *logger.Logger
}

func NewKafkaRelay(cfg *kafka_config.Config, topic, instanceID string, local Publisher, log *logger.Logger) (*KafkaRelay, error) {
	relay := &KafkaRelay{
		local:      local,
		instanceID: instanceID,
		log:        log,
	}

	consumer, err := kafka.NewConsumer(cfg, topic, "slot-relay-"+instanceID, relay.handle, log)
	if err != nil {
		return nil, fmt.Errorf("create event consumer: %w", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	relay.consumer = consumer

	return relay, nil
}

func (r *KafkaRelay) handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetSource() == r.instanceID {
		return nil
	}

	var ev model.ReservationEvent
	if err := msg.DecodeValue(&ev); err != nil {
		return fmt.Errorf("decode slot event: %w", err)
	}
	if ev.ExpertID == "" || ev.NewState == "" {
		return fmt.Errorf("slot event without expert or state: %w", kafka.ErrInvalidMessage)
	}
	return r.local.Publish(ctx, ev)
}

// Start blocks until ctx is cancelled or Close is called.
func (r *KafkaRelay) Start(ctx context.Context) error {
	r.log.Info("Slot event relay started", "group", "slot-relay-"+r.instanceID)
	return r.consumer.Start(ctx)
}

func (r *KafkaRelay) Close() error {
	return r.consumer.Close()
}
