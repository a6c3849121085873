package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"TechNotesWebserver/internal/domain"
	"TechNotesWebserver/internal/service"
)

// userResponse deliberately has no password field; credentials never leave
// the store layer.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     u.Roles,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (a *api) handleUsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.usersSvc.List(r.Context())
	if err != nil {
		a.logger.Error("list users", "err", err)
		writeInternalError(w)
		return
	}

	// Empty directory reports a client error. Questionable, but existing
	// consumers key on this exact response.
	if len(users) == 0 {
		writeMessage(w, http.StatusBadRequest, "No users found!")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	WriteJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Roles    json.RawMessage `json:"roles"`
}

// rolesOrDefault ignores a malformed roles value. Registration callers send
// all sorts of shapes here; anything that is not a string array means "give
// me the baseline role".
func rolesOrDefault(raw json.RawMessage) []string {
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil
	}
	return roles
}

func (a *api) handleUsersCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required!")
		return
	}

	u, err := a.usersSvc.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Roles:    rolesOrDefault(req.Roles),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeMessage(w, http.StatusBadRequest, "All fields are required!")
		case errors.Is(err, domain.ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, "Username Already Registered!")
		default:
			a.logger.Error("create user", "err", err)
			writeMessage(w, http.StatusBadRequest, "Invalid user data received!")
		}
		return
	}

	writeMessage(w, http.StatusCreated, fmt.Sprintf("New User %s has been Registered!", u.Username))
}

type updateUserRequest struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   *bool    `json:"active"`
	Password string   `json:"password"`
}

func (a *api) handleUsersUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required!")
		return
	}

	u, err := a.usersSvc.Update(r.Context(), service.UpdateUserInput{
		ID:       req.ID,
		Username: req.Username,
		Roles:    req.Roles,
		Active:   req.Active,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeMessage(w, http.StatusBadRequest, "All fields are required!")
		case errors.Is(err, domain.ErrNotFound):
			writeMessage(w, http.StatusBadRequest, "user not found!")
		case errors.Is(err, domain.ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, "Duplicate username!")
		default:
			a.logger.Error("update user", "err", err)
			writeInternalError(w)
		}
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("%s updated!", u.Username))
}

type deleteUserRequest struct {
	ID string `json:"id"`
}

func (a *api) handleUsersDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "User ID Required!")
		return
	}

	u, err := a.usersSvc.Delete(r.Context(), req.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeMessage(w, http.StatusBadRequest, "User ID Required!")
		case errors.Is(err, domain.ErrUserHasNotes):
			writeMessage(w, http.StatusBadRequest, "User with notes Can't be Deleted!")
		case errors.Is(err, domain.ErrNotFound):
			writeMessage(w, http.StatusBadRequest, "User not Found!")
		default:
			a.logger.Error("delete user", "err", err)
			writeInternalError(w)
		}
		return
	}

	// Bare JSON string, not a message object. Legacy contract.
	WriteJSON(w, http.StatusOK, fmt.Sprintf("Username %s with ID %s has been Deleted!", u.Username, u.ID))
}
