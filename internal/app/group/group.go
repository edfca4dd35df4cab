/*
Package group maintains the group membership index and the sidebar
visibility derived from it.

Groups exist only to gate contact visibility: no message is ever addressed
to a group. The one invariant with teeth is membership exclusivity: at
group creation time no candidate member may already belong to any group.
Whether the same rule applies when members are added later is a deployment
policy (see Store implementations).
*/
package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ichats/internal/app/user"
)

// ErrNotFound is returned when the referenced group does not exist.
var ErrNotFound = errors.New("group not found")

// Member is the minimal user projection resolved into group listings:
// name and email only, no secrets.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Group is a named set of members.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConflictError reports every candidate member that already belongs to a
// group, so the caller can fix the whole selection in one round trip.
type ConflictError struct {
	Members []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d member(s) already belong to a group", len(e.Members))
}

// Store defines the operations over the group membership index.
type Store interface {
	// Create commits a new group only if no candidate member belongs to any
	// existing group. On overlap it returns a *ConflictError listing every
	// conflicting member id and persists nothing. The check and the insert are
	// atomic with respect to concurrent Create calls.
	Create(ctx context.Context, name string, memberIDs []string) (Group, error)

	// AddMembers merges the new members into the group (set union, idempotent).
	// Returns ErrNotFound when the group does not exist. Exclusivity is only
	// re-checked when the implementation is configured to do so.
	AddMembers(ctx context.Context, groupID string, memberIDs []string) (Group, error)

	// List returns every group with members resolved to the minimal projection.
	List(ctx context.Context) ([]Group, error)

	// Delete removes the group. Returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, groupID string) error

	// VisibleContacts derives the sidebar for a user: the union of co-members
	// across all groups containing the user, excluding the user, resolved to
	// secret-free profiles. A user in no group sees an empty list.
	VisibleContacts(ctx context.Context, userID string) ([]user.Profile, error)
}
