package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/goexpense/internal/domain"
)

// ErrUserExists is returned when provisioning an email that is already in the directory.
var ErrUserExists = errors.New("user with this email already exists")

// UserUseCase mirrors identity provider accounts into the local directory.
type UserUseCase struct {
	userRepo UserRepository
	idGen    IDGenerator
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(userRepo UserRepository, idGen IDGenerator) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		idGen:    idGen,
	}
}

// CreateUserInput represents input for provisioning a user.
// ID is the identity provider's subject; a new one is generated when empty.
type CreateUserInput struct {
	ID    string
	Email string
	Name  string
	Role  domain.Role
}

// CreateUser adds a user to the directory
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	if !input.Role.IsValid() {
		return nil, domain.NewValidationError("role", "role must be EMPLOYEE or MANAGER")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uc.idGen.Generate()
	}

	user := &domain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      input.Role,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListUsers lists the directory ordered by creation time
func (uc *UserUseCase) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return uc.userRepo.List(ctx)
}
