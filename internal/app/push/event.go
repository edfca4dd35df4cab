/*
Package push implements the server-to-client notification channel.

This file defines the event envelope emitted over an open WebSocket
connection. Two event types exist: the full new message, and a short
notify hint carrying the sender id.
*/
package push

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ichats/internal/app/message"
)

// EventType identifies the kind of push event.
type EventType string

const (
	// TypeNewMessage carries the full persisted message to its receiver.
	TypeNewMessage EventType = "newMessage"

	// TypeNotifyUser carries a short alert plus the sender id.
	TypeNotifyUser EventType = "notifyUser"
)

// Event is the envelope for everything written to a push connection.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NotifyPayload is the body of a TypeNotifyUser event.
type NotifyPayload struct {
	Message  string `json:"message"`
	SenderID string `json:"senderId"`
}

// NewEvent builds an event envelope with a fresh id and the current timestamp.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// encodeEvents marshals the events delivered for one stored message.
func encodeEvents(msg message.Message) ([][]byte, error) {
	newMsg, err := json.Marshal(NewEvent(TypeNewMessage, msg))
	if err != nil {
		return nil, err
	}

	notify, err := json.Marshal(NewEvent(TypeNotifyUser, NotifyPayload{
		Message:  "You have a new message!",
		SenderID: msg.SenderID,
	}))
	if err != nil {
		return nil, err
	}

	return [][]byte{newMsg, notify}, nil
}
