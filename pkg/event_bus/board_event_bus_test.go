package event_bus

import (
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestBoardEventBus(t *testing.T) {
	t.Run("should deliver typed events to subscribers", func(t *testing.T) {
		bus := NewBoardEventBus[testEvent](EventBus.New(), zap.NewNop())
		received := make(chan testEvent, 1)
		err := bus.Subscribe("test.topic", func(event testEvent) error {
			received <- event
			return nil
		}, false)
		if err != nil {
			t.Errorf("Failed to subscribe to topic: %v", err)
		}

		err = bus.Publish("test.topic", testEvent{Name: "slot", Count: 4})
		if err != nil {
			t.Errorf("Failed to publish event: %v", err)
		}

		select {
		case event := <-received:
			assert.Equal(t, testEvent{Name: "slot", Count: 4}, event)
		case <-time.After(time.Second):
			t.Error("Timed out waiting for event")
		}
	})

	t.Run("should hand each subscriber its own copy", func(t *testing.T) {
		bus := NewBoardEventBus[*testEvent](EventBus.New(), zap.NewNop())
		first := make(chan *testEvent, 1)
		second := make(chan *testEvent, 1)
		err := bus.Subscribe("test.topic", func(event *testEvent) error {
			event.Count++
			first <- event
			return nil
		}, true)
		if err != nil {
			t.Errorf("Failed to subscribe to topic: %v", err)
		}
		err = bus.Subscribe("test.topic", func(event *testEvent) error {
			second <- event
			return nil
		}, true)
		if err != nil {
			t.Errorf("Failed to subscribe to topic: %v", err)
		}

		if err := bus.Publish("test.topic", &testEvent{Count: 1}); err != nil {
			t.Errorf("Failed to publish event: %v", err)
		}

		select {
		case event := <-first:
			assert.Equal(t, 2, event.Count)
		case <-time.After(time.Second):
			t.Error("Timed out waiting for event")
		}
		select {
		case event := <-second:
			assert.Equal(t, 1, event.Count)
		case <-time.After(time.Second):
			t.Error("Timed out waiting for event")
		}
	})
}
