package message

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"ichats/internal/app/attachment"
)

// PGStore is the PostgreSQL-backed implementation of Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore on top of the shared connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, senderID, receiverID, text string, att *attachment.Attachment) (Message, error) {
	if text == "" && att == nil {
		return Message{}, ErrEmpty
	}

	m := Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: att,
	}

	var body, kind, url, mime, name pgtype.Text
	if text != "" {
		body = pgtype.Text{String: text, Valid: true}
	}
	if att != nil {
		kind = pgtype.Text{String: string(att.Kind), Valid: true}
		url = pgtype.Text{String: att.URL, Valid: true}
		if att.MimeType != "" {
			mime = pgtype.Text{String: att.MimeType, Valid: true}
		}
		if att.Name != "" {
			name = pgtype.Text{String: att.Name, Valid: true}
		}
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, body, attachment_kind, attachment_url, attachment_mime, attachment_name)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
		 RETURNING id::text, created_at`,
		senderID, receiverID, body, kind, url, mime, name,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		return Message{}, err
	}

	return m, nil
}

func (s *PGStore) ListConversation(ctx context.Context, userA, userB string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, sender_id::text, receiver_id::text, body,
		        attachment_kind, attachment_url, attachment_mime, attachment_name, created_at
		 FROM messages
		 WHERE (sender_id = $1::uuid AND receiver_id = $2::uuid)
		    OR (sender_id = $2::uuid AND receiver_id = $1::uuid)
		 ORDER BY created_at ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PGStore) DeleteInvolving(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM messages
		 WHERE sender_id = $1::uuid OR receiver_id = $1::uuid
		 RETURNING id::text, sender_id::text, receiver_id::text, body,
		           attachment_kind, attachment_url, attachment_mime, attachment_name, created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	messages := []Message{}

	for rows.Next() {
		var m Message
		var body, kind, url, mime, name pgtype.Text

		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &body,
			&kind, &url, &mime, &name, &m.CreatedAt); err != nil {
			return nil, err
		}

		m.Text = body.String

		if kind.Valid {
			m.Attachment = &attachment.Attachment{
				Kind:     attachment.Kind(kind.String),
				URL:      url.String,
				MimeType: mime.String,
				Name:     name.String,
			}
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}
