package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// UserService defines directory operations.
type UserService interface {
	CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// UserHandler exposes the user directory.
type UserHandler struct {
	users  UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Me returns the caller's directory record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if !p.IsAuthenticated() {
		writeDomainError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	user, err := h.users.GetUser(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// List lists the directory. Managers only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := requireManager(r); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UsersFromDomain(users))
}

// Create adds a user to the directory. Managers only.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := requireManager(r); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req dto.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), input)
	if err != nil {
		if errors.Is(err, usecase.ErrUserExists) {
			writeError(w, http.StatusConflict, err.Error(), "")
			return
		}
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

func requireManager(r *http.Request) error {
	p := principal(r)
	if !p.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	if p.Role != domain.RoleManager {
		return domain.ErrInsufficientRole
	}
	return nil
}
