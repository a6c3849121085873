package postgres

import (
	"context"
	"fmt"

	"TechNotesWebserver/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotesStore struct {
	pool *pgxpool.Pool
}

func NewNotesStore(pool *pgxpool.Pool) *NotesStore {
	return &NotesStore{pool: pool}
}

func (s *NotesStore) CreateNote(ctx context.Context, userID, title, text string) (domain.Note, error) {
	const q = `
		INSERT INTO notes (id, user_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, title, body, completed, created_at, updated_at
	`

	var (
		n        domain.Note
		idUUID   pgtype.UUID
		userUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, uuid.NewString(), userID, title, text).Scan(
		&idUUID,
		&userUUID,
		&n.Title,
		&n.Text,
		&n.Completed,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return domain.Note{}, fmt.Errorf("create note: %w", err)
	}

	n.ID = uuidOrEmpty(idUUID)
	n.UserID = uuidOrEmpty(userUUID)
	return n, nil
}

func (s *NotesStore) ListNotesByUser(ctx context.Context, userID string) ([]domain.Note, error) {
	const q = `
		SELECT id, user_id, title, body, completed, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var (
			n        domain.Note
			idUUID   pgtype.UUID
			userUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &userUUID, &n.Title, &n.Text, &n.Completed, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.ID = uuidOrEmpty(idUUID)
		n.UserID = uuidOrEmpty(userUUID)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// UserHasNotes reports whether any note still references the user.
func (s *NotesStore) UserHasNotes(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM notes WHERE user_id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check notes for user: %w", err)
	}
	return exists, nil
}
