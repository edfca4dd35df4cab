package push

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"ichats/internal/app/message"
	"ichats/internal/app/presence"
)

// fakeHandle collects enqueued events for inspection.
type fakeHandle struct {
	queued [][]byte
	full   bool
}

func (f *fakeHandle) Enqueue(event []byte) bool {
	if f.full {
		return false
	}
	f.queued = append(f.queued, event)
	return true
}

func (f *fakeHandle) Kick(string) {}

func decodeEvent(t *testing.T, raw []byte) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestDeliverToOnlineReceiver(t *testing.T) {
	registry := presence.NewMemoryRegistry()
	handle := &fakeHandle{}
	registry.Register("receiver-1", handle)

	relay := NewRelay(registry)
	relay.Deliver(message.Message{
		ID:         "m1",
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Text:       "hello",
	})

	require.Len(t, handle.queued, 2)

	newMsg := decodeEvent(t, handle.queued[0])
	require.Equal(t, TypeNewMessage, newMsg.Type)
	require.NotEmpty(t, newMsg.ID)
	require.NotZero(t, newMsg.Timestamp)

	payload, ok := newMsg.Payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "m1", payload["id"])
	require.Equal(t, "hello", payload["text"])

	notify := decodeEvent(t, handle.queued[1])
	require.Equal(t, TypeNotifyUser, notify.Type)

	notifyPayload, ok := notify.Payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "You have a new message!", notifyPayload["message"])
	require.Equal(t, "sender-1", notifyPayload["senderId"])
}

func TestDeliverToOfflineReceiverIsNoOp(t *testing.T) {
	registry := presence.NewMemoryRegistry()
	relay := NewRelay(registry)

	// Must not panic or block when nobody is connected.
	relay.Deliver(message.Message{
		ID:         "m1",
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Text:       "hello",
	})
}

func TestDeliverStopsOnFullQueue(t *testing.T) {
	registry := presence.NewMemoryRegistry()
	handle := &fakeHandle{full: true}
	registry.Register("receiver-1", handle)

	relay := NewRelay(registry)
	relay.Deliver(message.Message{
		ID:         "m1",
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Text:       "hello",
	})

	require.Empty(t, handle.queued)
}

func TestDeliverOnlyReachesReceiver(t *testing.T) {
	registry := presence.NewMemoryRegistry()
	receiver := &fakeHandle{}
	bystander := &fakeHandle{}
	registry.Register("receiver-1", receiver)
	registry.Register("bystander", bystander)

	relay := NewRelay(registry)
	relay.Deliver(message.Message{
		ID:         "m1",
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
	})

	require.Len(t, receiver.queued, 2)
	require.Empty(t, bystander.queued)
}
