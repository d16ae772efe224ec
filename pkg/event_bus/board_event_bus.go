package event_bus

import (
	"encoding/json"
	"fmt"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// BoardEventBus is a typed topic over the process-wide event bus. Events
// cross the bus as JSON, so subscribers always receive their own copy and a
// publisher's value can never be mutated behind its back.
type BoardEventBus[EventType any] interface {
	Subscribe(topic string, handler func(event EventType) error, transactional bool) error
	Publish(topic string, event EventType) error
}

type BoardEventBusImpl[EventType any] struct {
	eventBus EventBus.Bus
	logger   *zap.Logger
}

func NewBoardEventBus[EventType any](
	eventBus EventBus.Bus,
	logger *zap.Logger,
) BoardEventBus[EventType] {
	return &BoardEventBusImpl[EventType]{
		eventBus: eventBus,
		logger:   logger,
	}
}

func (ev *BoardEventBusImpl[EventType]) Subscribe(
	topic string,
	handler func(event EventType) error,
	transactional bool,
) error {
	err := ev.eventBus.SubscribeAsync(
		topic,
		func(arg string) {
			var event EventType
			err := json.Unmarshal([]byte(arg), &event)
			if err != nil {
				ev.logger.Error("Failed to unmarshal event during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
				return
			}
			err = handler(event)
			if err != nil {
				ev.logger.Error("Failed to handle event during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		},
		transactional,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (ev *BoardEventBusImpl[EventType]) Publish(
	topic string,
	event EventType,
) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event during publishing of topic %s: %w", topic, err)
	}
	ev.eventBus.Publish(topic, string(eventBytes))
	return nil
}
