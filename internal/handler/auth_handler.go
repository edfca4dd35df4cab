/*
Package handler provides HTTP handler functions for user authentication and session teardown.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"ichats/internal/app/attachment"
	"ichats/internal/app/user"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/req"
	"ichats/internal/pkg/resp"
)

const (
	// MinPasswordLength is the minimum accepted password length in runes.
	MinPasswordLength = 6

	// MaxPasswordLength bounds bcrypt input.
	MaxPasswordLength = 50
)

type SignupInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// HandleSignup processes the request to create a new user account.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.FullName = strings.TrimSpace(input.FullName)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		if input.FullName == "" || input.Email == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrSignupFieldsRequired))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < MinPasswordLength || passwordLen > MaxPasswordLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword, MinPasswordLength))
			return
		}

		role := input.Role
		if role == "" {
			role = user.RoleUser
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		profile, err := deps.Users.Create(r.Context(), input.FullName, input.Email, string(hashedPassword), role)
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				logx.Warn("signup conflict: email already registered", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, profile)
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies user credentials and issues a JWT session token.
// Admin accounts are refused on this surface.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Users.GetAccountByEmail(r.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
		if err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				logx.Error(err, "login: account fetch failed")
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if account.Role == user.RoleAdmin {
			resp.RespondError(w, r, errs.NewError(errs.ErrAdminLoginRefused))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "email", account.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		payload := &jwt.Payload{
			UserID: account.ID,
			Role:   account.Role,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  account.Profile,
		})
	}
}

// HandleLogout performs the session teardown cascade: every message touching
// the caller is removed, then each deleted attachment blob is deleted from
// storage. Blob-deletion failures are logged and skipped per item; the
// database deletion is authoritative and never rolled back. The session
// token itself is stateless and is discarded client-side.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		deleted, err := deps.Messages.DeleteInvolving(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "logout: failed to delete user messages", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		removedBlobs := 0
		for _, msg := range deleted {
			if msg.Attachment == nil {
				continue
			}

			if err := deps.Blobs.Delete(r.Context(), msg.Attachment.URL); err != nil {
				logx.Warn("logout: failed to delete attachment blob, continuing",
					"message_id", msg.ID, "url", msg.Attachment.URL, "error", err)
				continue
			}
			removedBlobs++
		}

		logx.Info("logout cascade completed",
			"user_id", identity.UserID,
			"deleted_messages", len(deleted),
			"removed_blobs", removedBlobs)

		resp.RespondSuccess(w, r, map[string]any{
			"deletedMessages": len(deleted),
		})
	}
}

type UpdateProfileInput struct {
	ProfilePic string `json:"profilePic"`
}

// HandleUpdateProfile stores a new profile picture from a base64 payload and
// updates the caller's account with its public URL.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if strings.TrimSpace(input.ProfilePic) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentInvalid))
			return
		}

		att, customErr := deps.Ingestor.IngestInline(r.Context(), attachment.InlineImage(input.ProfilePic, "profile.png"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if att.Kind != attachment.KindImage {
			// The blob was stored before classification; remove it again.
			if err := deps.Blobs.Delete(r.Context(), att.URL); err != nil {
				logx.Warn("update-profile: failed to remove rejected blob", "url", att.URL, "error", err)
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentInvalid))
			return
		}

		profile, err := deps.Users.UpdateProfilePic(r.Context(), identity.UserID, att.URL)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "update-profile: db update failed", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, profile)
	}
}

// HandleCheckAuth echoes the authenticated caller's profile.
func HandleCheckAuth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		profile, err := deps.Users.GetByID(r.Context(), identity.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "check-auth: profile fetch failed", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, profile)
	}
}
