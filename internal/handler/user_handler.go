package handler

import (
	"net/http"

	"ichats/internal/app/user"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/resp"
)

// HandleListUsers returns profiles filtered by role, defaulting to regular users.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		role := r.URL.Query().Get("role")
		if role == "" {
			role = user.RoleUser
		}

		users, err := deps.Users.ListByRole(r.Context(), role)
		if err != nil {
			logx.Error(err, "user list failed", "role", role)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, users)
	}
}
