package eventbus_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-messages:
		msg.Ack()

		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")

		return nil
	}
}

func TestWatermillPublisher_Publish(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := eventbus.NewWatermillPublisher(pubSub)

	t.Cleanup(func() { _ = publisher.Close() })

	messages, err := pubSub.Subscribe(t.Context(), events.Topic)
	require.NoError(t, err)

	actions := []json.RawMessage{json.RawMessage(`{"type":"slack","channel":"#ops","message":"hi"}`)}
	event := events.NewWorkflowTriggered("wf-1", "user-1", "Notify ops", actions, []string{"log-1"})

	require.NoError(t, publisher.Publish(t.Context(), "wf-1", event))

	msg := receive(t, messages)
	assert.Equal(t, "wf-1", msg.Metadata.Get(events.EventMetadataKey))
	assert.Equal(t, string(events.WorkflowTriggeredEvent), msg.Metadata.Get(events.EventTypeMetadataKey))

	var got events.WorkflowTriggered
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, events.WorkflowTriggeredEvent, got.Type)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, "Notify ops", got.WorkflowName)
	assert.Equal(t, []string{"log-1"}, got.LogIDs)
	assert.JSONEq(t, string(actions[0]), string(got.Actions[0]))
	assert.NotEmpty(t, got.ID)
}

func TestWatermillPublisher_ClosedPublisher(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := eventbus.NewWatermillPublisher(pubSub)
	require.NoError(t, publisher.Close())

	err := publisher.Publish(t.Context(), "wf-1", events.NewWorkflowDeleted("wf-1", ""))
	assert.Error(t, err)
}

func TestNewKafkaPublisher_NoBrokers(t *testing.T) {
	t.Parallel()

	_, err := eventbus.NewKafkaPublisher([]string{"", " "}, watermill.NopLogger{})
	assert.ErrorIs(t, err, eventbus.ErrNoBrokers)
}
