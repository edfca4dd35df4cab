/*
Package message contains the message model and its persistence store.

Messages are immutable one-to-one records: once created they can only be
deleted, and only as part of a user's cascade cleanup. Persistence is the
source of truth for delivery; the push relay is an optional low-latency hint
layered on top.
*/
package message

import (
	"context"
	"errors"
	"time"

	"ichats/internal/app/attachment"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrEmpty is returned when a message carries neither text nor an attachment.
	ErrEmpty = errors.New("message requires text or an attachment")
)

// Message is a single one-to-one chat message. Text and Attachment are each
// optional but never both absent.
type Message struct {
	ID         string                 `json:"id"`
	SenderID   string                 `json:"senderId"`
	ReceiverID string                 `json:"receiverId"`
	Text       string                 `json:"text,omitempty"`
	Attachment *attachment.Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// Store defines the persistence operations for messages.
type Store interface {
	// Create persists a new message. At least one of text or attachment must be
	// present; otherwise ErrEmpty is returned and nothing is written.
	Create(ctx context.Context, senderID, receiverID, text string, att *attachment.Attachment) (Message, error)

	// ListConversation returns every message exchanged between the two users in
	// either direction, ordered by creation time ascending. The result is
	// invariant under swapping the two arguments.
	ListConversation(ctx context.Context, userA, userB string) ([]Message, error)

	// DeleteInvolving atomically removes every message in which the user is
	// sender or receiver and returns the deleted records, so the caller can
	// locate and remove their attachment blobs.
	DeleteInvolving(ctx context.Context, userID string) ([]Message, error)
}
