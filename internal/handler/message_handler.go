/*
Package handler provides HTTP handler functions for the messaging surface:
the sidebar, conversation reads, and the send path.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ichats/internal/app/attachment"
	"ichats/internal/app/message"
	"ichats/internal/app/user"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/req"
	"ichats/internal/pkg/resp"
)

// MaxTextBytes is the maximum allowed size (in bytes) for message text.
const MaxTextBytes = 5000

// HandleSidebar returns the contacts visible to the caller: the union of
// co-members across all groups the caller belongs to, excluding the caller.
func HandleSidebar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		contacts, err := deps.Groups.VisibleContacts(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "sidebar: visibility query failed", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, contacts)
	}
}

// HandleGetConversation returns the full message history between the caller
// and the user named in the URL, oldest first.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		otherID := chi.URLParam(r, "id")
		if !isUUID(otherID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		messages, err := deps.Messages.ListConversation(r.Context(), identity.UserID, otherID)
		if err != nil {
			logx.Error(err, "conversation: list failed", "user_id", identity.UserID, "other_id", otherID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}

// SendMessageInput is the JSON shape of a send request. The same endpoint
// also accepts a multipart form ("text" field plus a "file" part).
type SendMessageInput struct {
	Text       string             `json:"text,omitempty"`
	Attachment *attachment.Inline `json:"attachment,omitempty"`
}

// HandleSendMessage persists a new message and then pushes a best-effort
// notification to the receiver. Attachment storage is confirmed before the
// message record is written, so a stored message never references a missing
// blob; push failure never reaches the sender.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		receiverID := chi.URLParam(r, "id")
		if !isUUID(receiverID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, err := deps.Users.GetByID(r.Context(), receiverID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrReceiverNotFound))
				return
			}
			logx.Error(err, "send: receiver lookup failed", "receiver_id", receiverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		text, att, customErr := parseSendPayload(w, r, deps)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if len(text) > MaxTextBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		msg, err := deps.Messages.Create(r.Context(), identity.UserID, receiverID, text, att)
		if err != nil {
			if errors.Is(err, message.ErrEmpty) {
				resp.RespondError(w, r, errs.NewError(errs.ErrEmptyMessage))
				return
			}
			logx.Error(err, "send: message insert failed", "sender_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Relay.Deliver(msg)

		resp.RespondCreated(w, r, msg)
	}
}

// parseSendPayload extracts text and an optional attachment from either a
// multipart form or a JSON body, storing the attachment when present.
func parseSendPayload(w http.ResponseWriter, r *http.Request, deps *AppDeps) (string, *attachment.Attachment, *errs.CustomError) {
	if req.IsMultipart(r) {
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			return "", nil, customErr
		}

		text := r.FormValue("text")

		file, header, err := r.FormFile("file")
		if err == http.ErrMissingFile {
			return text, nil, nil
		}
		if err != nil {
			return "", nil, errs.NewError(errs.ErrFormParseFailed)
		}
		defer file.Close()

		att, customErr := deps.Ingestor.IngestReader(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
		if customErr != nil {
			return "", nil, customErr
		}

		return text, att, nil
	}

	var input SendMessageInput
	if customErr := req.BindJSON(r, &input); customErr != nil {
		return "", nil, customErr
	}

	if input.Attachment == nil {
		return input.Text, nil, nil
	}

	att, customErr := deps.Ingestor.IngestInline(r.Context(), *input.Attachment)
	if customErr != nil {
		return "", nil, customErr
	}

	return input.Text, att, nil
}

// isUUID reports whether the given path parameter is a well-formed UUID.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
