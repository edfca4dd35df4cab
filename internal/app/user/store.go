package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ichats/internal/app/db"
)

// PGStore is the PostgreSQL-backed implementation of Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore on top of the shared connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, fullName, email, passwordHash, role string) (Profile, error) {
	var p Profile

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (full_name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text, full_name, email, profile_pic, role`,
		fullName, email, passwordHash, role,
	).Scan(&p.ID, &p.FullName, &p.Email, &p.ProfilePic, &p.Role)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return Profile{}, ErrEmailTaken
		}
		return Profile{}, err
	}

	return p, nil
}

func (s *PGStore) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	var a Account

	err := s.pool.QueryRow(ctx,
		`SELECT id::text, full_name, email, profile_pic, role, password_hash
		 FROM users WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.FullName, &a.Email, &a.ProfilePic, &a.Role, &a.PasswordHash)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	return a, nil
}

func (s *PGStore) GetByID(ctx context.Context, id string) (Profile, error) {
	var p Profile

	err := s.pool.QueryRow(ctx,
		`SELECT id::text, full_name, email, profile_pic, role
		 FROM users WHERE id = $1::uuid`,
		id,
	).Scan(&p.ID, &p.FullName, &p.Email, &p.ProfilePic, &p.Role)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	return p, nil
}

func (s *PGStore) UpdateProfilePic(ctx context.Context, id, url string) (Profile, error) {
	var p Profile

	err := s.pool.QueryRow(ctx,
		`UPDATE users SET profile_pic = $2 WHERE id = $1::uuid
		 RETURNING id::text, full_name, email, profile_pic, role`,
		id, url,
	).Scan(&p.ID, &p.FullName, &p.Email, &p.ProfilePic, &p.Role)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	return p, nil
}

func (s *PGStore) ListByRole(ctx context.Context, role string) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, full_name, email, profile_pic, role
		 FROM users WHERE role = $1 ORDER BY full_name`,
		role,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.ProfilePic, &p.Role); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}
