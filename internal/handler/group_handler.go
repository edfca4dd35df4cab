/*
Package handler provides HTTP handler functions for group management.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ichats/internal/app/group"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/req"
	"ichats/internal/pkg/resp"
)

type CreateGroupInput struct {
	GroupName string   `json:"groupName"`
	Members   []string `json:"members"`
}

// HandleCreateGroup creates a group after the membership-exclusivity check.
// When any candidate member already belongs to a group, the response carries
// the complete list of conflicting ids so the client can correct the whole
// selection in one round trip.
func HandleCreateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if strings.TrimSpace(input.GroupName) == "" || len(input.Members) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupFieldsRequired))
			return
		}

		if !allUUIDs(input.Members) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		created, err := deps.Groups.Create(r.Context(), strings.TrimSpace(input.GroupName), input.Members)
		if err != nil {
			var conflict *group.ConflictError
			if errors.As(err, &conflict) {
				resp.RespondErrorData(w, r, errs.NewError(errs.ErrGroupMemberConflict), map[string]any{
					"conflictingMembers": conflict.Members,
				})
				return
			}

			logx.Error(err, "group create failed", "group_name", input.GroupName)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, created)
	}
}

type AddGroupMembersInput struct {
	GroupID    string   `json:"groupId"`
	NewMembers []string `json:"newMembers"`
}

// HandleAddGroupMembers merges new members into an existing group (set union).
func HandleAddGroupMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input AddGroupMembersInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.GroupID == "" || len(input.NewMembers) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupFieldsRequired))
			return
		}

		if !isUUID(input.GroupID) || !allUUIDs(input.NewMembers) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		updated, err := deps.Groups.AddMembers(r.Context(), input.GroupID, input.NewMembers)
		if err != nil {
			if errors.Is(err, group.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrGroupNotFound))
				return
			}

			var conflict *group.ConflictError
			if errors.As(err, &conflict) {
				resp.RespondErrorData(w, r, errs.NewError(errs.ErrGroupMemberConflict), map[string]any{
					"conflictingMembers": conflict.Members,
				})
				return
			}

			logx.Error(err, "group member add failed", "group_id", input.GroupID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, updated)
	}
}

// HandleListGroups returns every group with members resolved to name/email.
func HandleListGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		groups, err := deps.Groups.List(r.Context())
		if err != nil {
			logx.Error(err, "group list failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, groups)
	}
}

// HandleDeleteGroup removes a group by id.
func HandleDeleteGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		groupID := chi.URLParam(r, "groupId")
		if !isUUID(groupID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Groups.Delete(r.Context(), groupID); err != nil {
			if errors.Is(err, group.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrGroupNotFound))
				return
			}

			logx.Error(err, "group delete failed", "group_id", groupID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Group deleted successfully",
		})
	}
}

// allUUIDs reports whether every id in the list is a well-formed UUID.
func allUUIDs(ids []string) bool {
	for _, id := range ids {
		if !isUUID(id) {
			return false
		}
	}
	return true
}
