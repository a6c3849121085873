package postgres

import (
	"context"
	"errors"
	"fmt"

	"TechNotesWebserver/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

// ListUsers returns all users. The password hash column is never selected.
func (s *UsersStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	const q = `
		SELECT id, username, roles, active, created_at, updated_at
		FROM users
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			u      domain.User
			idUUID pgtype.UUID
			roles  pgtype.FlatArray[string]
		)
		if err := rows.Scan(&idUUID, &u.Username, &roles, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = uuidOrEmpty(idUUID)
		u.Roles = textArrayOrEmpty(roles)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UsersStore) CreateUser(ctx context.Context, username, passwordHash string, roles []string) (domain.User, error) {
	const q = `
		INSERT INTO users (id, username, username_fold, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, roles, active, created_at, updated_at
	`

	var (
		u         domain.User
		idUUID    pgtype.UUID
		rolesScan pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, uuid.NewString(), username, domain.FoldUsername(username), passwordHash, roles).Scan(
		&idUUID,
		&u.Username,
		&rolesScan,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapUserWriteError("create user", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Roles = textArrayOrEmpty(rolesScan)
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT id, username, roles, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var (
		u      domain.User
		idUUID pgtype.UUID
		roles  pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(&idUUID, &u.Username, &roles, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Roles = textArrayOrEmpty(roles)
	return u, nil
}

// FindUserByUsernameFold does a case- and accent-insensitive username lookup
// against the same folded form the users_username_fold_uq index enforces.
func (s *UsersStore) FindUserByUsernameFold(ctx context.Context, username string) (domain.User, error) {
	const q = `
		SELECT id, username, roles, active, created_at, updated_at
		FROM users
		WHERE username_fold = $1
		LIMIT 1
	`

	var (
		u      domain.User
		idUUID pgtype.UUID
		roles  pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, domain.FoldUsername(username)).Scan(&idUUID, &u.Username, &roles, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user by username: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Roles = textArrayOrEmpty(roles)
	return u, nil
}

// UpdateUser replaces username, roles and active. The password hash changes
// only when newPasswordHash is non-nil.
func (s *UsersStore) UpdateUser(ctx context.Context, id, username string, roles []string, active bool, newPasswordHash *string) (domain.User, error) {
	const q = `
		UPDATE users
		SET username = $2,
		    username_fold = $3,
		    roles = $4,
		    active = $5,
		    password_hash = COALESCE($6, password_hash),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, username, roles, active, created_at, updated_at
	`

	var (
		u         domain.User
		idUUID    pgtype.UUID
		rolesScan pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, id, username, domain.FoldUsername(username), roles, active, newPasswordHash).Scan(
		&idUUID,
		&u.Username,
		&rolesScan,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, mapUserWriteError("update user", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Roles = textArrayOrEmpty(rolesScan)
	return u, nil
}

func (s *UsersStore) DeleteUser(ctx context.Context, id string) (domain.User, error) {
	const q = `
		DELETE FROM users
		WHERE id = $1
		RETURNING id, username, roles, active, created_at, updated_at
	`

	var (
		u      domain.User
		idUUID pgtype.UUID
		roles  pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(&idUUID, &u.Username, &roles, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23503" {
			// FK restrict from notes.user_id.
			return domain.User{}, domain.ErrUserHasNotes
		}
		return domain.User{}, fmt.Errorf("delete user: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Roles = textArrayOrEmpty(roles)
	return u, nil
}

func mapUserWriteError(op string, err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		if pgerr.ConstraintName == "users_username_fold_uq" {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
