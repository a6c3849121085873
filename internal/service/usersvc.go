package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TechNotesWebserver/internal/auth"
	"TechNotesWebserver/internal/domain"

	"github.com/google/uuid"
)

type UsersStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, roles []string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	FindUserByUsernameFold(ctx context.Context, username string) (domain.User, error)
	UpdateUser(ctx context.Context, id, username string, roles []string, active bool, newPasswordHash *string) (domain.User, error)
	DeleteUser(ctx context.Context, id string) (domain.User, error)
}

type NotesStore interface {
	UserHasNotes(ctx context.Context, userID string) (bool, error)
}

type UsersService struct {
	Users UsersStore
	Notes NotesStore
}

type CreateUserInput struct {
	Username string
	Password string
	Roles    []string
}

type UpdateUserInput struct {
	ID       string
	Username string
	Roles    []string
	Active   *bool
	Password string
}

// List returns all users without credentials. An empty directory yields an
// empty slice; the transport layer owns the empty-result contract.
func (s *UsersService) List(ctx context.Context) ([]domain.User, error) {
	return s.Users.ListUsers(ctx)
}

func (s *UsersService) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "required"
	}
	if in.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return domain.User{}, domain.NewValidationError(fields)
	}

	if _, err := s.Users.FindUserByUsernameFold(ctx, username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("check duplicate username: %w", err)
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleEmployee}
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	return s.Users.CreateUser(ctx, username, passwordHash, roles)
}

func (s *UsersService) Update(ctx context.Context, in UpdateUserInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)

	fields := map[string]string{}
	if in.ID == "" {
		fields["id"] = "required"
	}
	if username == "" {
		fields["username"] = "required"
	}
	if len(in.Roles) == 0 {
		fields["roles"] = "required"
	}
	if in.Active == nil {
		fields["active"] = "required"
	}
	if len(fields) > 0 {
		return domain.User{}, domain.NewValidationError(fields)
	}

	// Row ids are UUIDs; a malformed id can never match a record, so it
	// reports not-found without touching the store.
	if _, err := uuid.Parse(in.ID); err != nil {
		return domain.User{}, domain.ErrNotFound
	}

	existing, err := s.Users.GetUserByID(ctx, in.ID)
	if err != nil {
		return domain.User{}, err
	}

	// A folded match is only a conflict when it belongs to a different record;
	// updating a user to its own (possibly re-cased) username is allowed.
	if dup, err := s.Users.FindUserByUsernameFold(ctx, username); err == nil {
		if dup.ID != existing.ID {
			return domain.User{}, domain.ErrUsernameTaken
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("check duplicate username: %w", err)
	}

	var newHash *string
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return domain.User{}, err
		}
		newHash = &hash
	}

	return s.Users.UpdateUser(ctx, existing.ID, username, in.Roles, *in.Active, newHash)
}

func (s *UsersService) Delete(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.NewValidationError(map[string]string{"id": "required"})
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, domain.ErrNotFound
	}

	hasNotes, err := s.Notes.UserHasNotes(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if hasNotes {
		return domain.User{}, domain.ErrUserHasNotes
	}

	return s.Users.DeleteUser(ctx, id)
}
