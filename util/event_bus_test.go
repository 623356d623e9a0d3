// util/event_bus_test.go
package util_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/util"
)

func TestEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("Publish_DeliversToTopicSubscribers", func(t *testing.T) {
		bus := util.NewEventBus()
		received := make(chan util.Event, 1)

		bus.Subscribe("institution.created", func(ctx context.Context, event util.Event) error {
			received <- event
			return nil
		})

		institution := model.Institution{ID: "inst::1", Name: "Crestwood College"}
		bus.Publish(ctx, "institution.created", institution)

		select {
		case event := <-received:
			assert.Equal(t, "institution.created", event.Topic)
			payload, ok := event.Payload.(model.Institution)
			require.True(t, ok)
			assert.Equal(t, "inst::1", payload.ID)
		case <-time.After(time.Second):
			t.Fatal("handler was not invoked")
		}
	})

	t.Run("Publish_SkipsOtherTopics", func(t *testing.T) {
		bus := util.NewEventBus()
		received := make(chan util.Event, 1)

		bus.Subscribe("institution.deleted", func(ctx context.Context, event util.Event) error {
			received <- event
			return nil
		})

		bus.Publish(ctx, "institution.updated", model.Institution{ID: "inst::1"})

		select {
		case <-received:
			t.Fatal("handler invoked for a topic it did not subscribe to")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("Unsubscribe_StopsDelivery", func(t *testing.T) {
		bus := util.NewEventBus()
		received := make(chan util.Event, 1)
		handler := func(ctx context.Context, event util.Event) error {
			received <- event
			return nil
		}

		bus.Subscribe("enrollment.created", handler)
		bus.Unsubscribe("enrollment.created", handler)

		bus.Publish(ctx, "enrollment.created", model.StudentEnrollment{ID: "enrl::1"})

		select {
		case <-received:
			t.Fatal("handler invoked after unsubscribe")
		case <-time.After(50 * time.Millisecond):
		}
	})
}
