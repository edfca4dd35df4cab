package group

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"ichats/internal/app/user"
)

// createLockKey is the advisory lock key serializing group creation. Taking a
// transaction-scoped lock closes the window where two concurrent creates with
// overlapping members could both pass the exclusivity check.
const createLockKey int64 = 0x69636861747367

// PGStore is the PostgreSQL-backed implementation of Store.
type PGStore struct {
	pool *pgxpool.Pool

	// exclusiveOnAdd re-applies the one-group-per-user check on AddMembers.
	exclusiveOnAdd bool
}

// NewPGStore constructs a PGStore on top of the shared connection pool.
func NewPGStore(pool *pgxpool.Pool, exclusiveOnAdd bool) *PGStore {
	return &PGStore{pool: pool, exclusiveOnAdd: exclusiveOnAdd}
}

func (s *PGStore) Create(ctx context.Context, name string, memberIDs []string) (Group, error) {
	memberIDs = dedup(memberIDs)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, createLockKey); err != nil {
		return Group{}, err
	}

	conflicts, err := membersInAnyGroup(ctx, tx, memberIDs, "")
	if err != nil {
		return Group{}, err
	}
	if len(conflicts) > 0 {
		return Group{}, &ConflictError{Members: conflicts}
	}

	g := Group{Name: name}
	err = tx.QueryRow(ctx,
		`INSERT INTO groups (name) VALUES ($1) RETURNING id::text, created_at`,
		name,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return Group{}, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id)
		 SELECT $1::uuid, unnest($2::uuid[])
		 ON CONFLICT DO NOTHING`,
		g.ID, memberIDs,
	); err != nil {
		return Group{}, err
	}

	g.Members, err = fetchMembers(ctx, tx, g.ID)
	if err != nil {
		return Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}

	return g, nil
}

func (s *PGStore) AddMembers(ctx context.Context, groupID string, memberIDs []string) (Group, error) {
	memberIDs = dedup(memberIDs)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	var g Group
	err = tx.QueryRow(ctx,
		`SELECT id::text, name, created_at FROM groups WHERE id = $1::uuid`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}

	if s.exclusiveOnAdd {
		conflicts, err := membersInAnyGroup(ctx, tx, memberIDs, groupID)
		if err != nil {
			return Group{}, err
		}
		if len(conflicts) > 0 {
			return Group{}, &ConflictError{Members: conflicts}
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id)
		 SELECT $1::uuid, unnest($2::uuid[])
		 ON CONFLICT DO NOTHING`,
		groupID, memberIDs,
	); err != nil {
		return Group{}, err
	}

	g.Members, err = fetchMembers(ctx, tx, groupID)
	if err != nil {
		return Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}

	return g, nil
}

func (s *PGStore) List(ctx context.Context) ([]Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id::text, g.name, g.created_at, u.id::text, u.full_name, u.email
		 FROM groups g
		 LEFT JOIN group_members gm ON gm.group_id = g.id
		 LEFT JOIN users u ON u.id = gm.user_id
		 ORDER BY g.created_at, u.full_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []Group{}
	index := map[string]int{}

	for rows.Next() {
		var g Group
		var memberID, fullName, email pgtype.Text

		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &memberID, &fullName, &email); err != nil {
			return nil, err
		}

		pos, seen := index[g.ID]
		if !seen {
			g.Members = []Member{}
			groups = append(groups, g)
			pos = len(groups) - 1
			index[g.ID] = pos
		}

		if memberID.Valid {
			groups[pos].Members = append(groups[pos].Members, Member{
				ID:       memberID.String,
				FullName: fullName.String,
				Email:    email.String,
			})
		}
	}

	return groups, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, groupID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1::uuid`, groupID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PGStore) VisibleContacts(ctx context.Context, userID string) ([]user.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT u.id::text, u.full_name, u.email, u.profile_pic, u.role
		 FROM group_members gm
		 JOIN group_members co ON co.group_id = gm.group_id AND co.user_id <> gm.user_id
		 JOIN users u ON u.id = co.user_id
		 WHERE gm.user_id = $1::uuid
		 ORDER BY u.full_name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []user.Profile{}
	for rows.Next() {
		var p user.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.ProfilePic, &p.Role); err != nil {
			return nil, err
		}
		contacts = append(contacts, p)
	}

	return contacts, rows.Err()
}

// membersInAnyGroup returns, sorted, every candidate already present in a
// group other than excludeGroupID (empty means any group counts).
func membersInAnyGroup(ctx context.Context, tx pgx.Tx, memberIDs []string, excludeGroupID string) ([]string, error) {
	query := `SELECT DISTINCT user_id::text FROM group_members WHERE user_id = ANY($1::uuid[])`
	args := []any{memberIDs}

	if excludeGroupID != "" {
		query += ` AND group_id <> $2::uuid`
		args = append(args, excludeGroupID)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(conflicts)
	return conflicts, nil
}

func fetchMembers(ctx context.Context, tx pgx.Tx, groupID string) ([]Member, error) {
	rows, err := tx.Query(ctx,
		`SELECT u.id::text, u.full_name, u.email
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = $1::uuid
		 ORDER BY u.full_name`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.FullName, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
