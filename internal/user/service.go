package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate indicates the username or email is already registered.
	ErrDuplicate = errors.New("user already exists")
)

// Store abstracts user persistence.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// RegisterInput captures the payload for account creation.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Username string `json:"username" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateInput captures the mutable profile fields.
type UpdateInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Username string `json:"username" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email"`
}

// Service orchestrates account operations.
type Service struct {
	Store    Store
	Validate *validator.Validate
	Now      func() time.Time
}

// NewService constructs a user service with its validator.
func NewService(store Store) *Service {
	return &Service{Store: store, Validate: validator.New(), Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register validates the input, hashes the password, and persists the account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.Validate.Struct(input); err != nil {
		return User{}, common.NewAppError("VALIDATION_ERROR", validationMessage(err), http.StatusBadRequest, err)
	}
	hash, err := argon2id.CreateHash(input.Password, argon2id.DefaultParams)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	u := User{
		ID:           uuid.New(),
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		Role:         RoleMember,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.Store.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return User{}, common.NewAppError("CONFLICT", "username or email already registered", http.StatusConflict, err)
		}
		return User{}, err
	}
	return created, nil
}

// GetByID returns a single user. Only the user themselves or an admin may read it.
func (s *Service) GetByID(ctx context.Context, actor common.Principal, id uuid.UUID) (User, error) {
	if err := s.requireSelfOrAdmin(actor, id); err != nil {
		return User{}, err
	}
	return s.Store.GetUser(ctx, id)
}

// List returns every registered user. Admin use only; the router enforces the role.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Store.ListUsers(ctx)
}

// Update validates and persists profile changes for a user.
func (s *Service) Update(ctx context.Context, actor common.Principal, id uuid.UUID, input UpdateInput) (User, error) {
	if err := s.requireSelfOrAdmin(actor, id); err != nil {
		return User{}, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.Validate.Struct(input); err != nil {
		return User{}, common.NewAppError("VALIDATION_ERROR", validationMessage(err), http.StatusBadRequest, err)
	}
	current, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	current.Name = input.Name
	current.Username = input.Username
	current.Email = input.Email
	current.UpdatedAt = s.now()
	updated, err := s.Store.UpdateUser(ctx, current)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return User{}, common.NewAppError("CONFLICT", "username or email already registered", http.StatusConflict, err)
		}
		return User{}, err
	}
	return updated, nil
}

// Delete removes a user account.
func (s *Service) Delete(ctx context.Context, actor common.Principal, id uuid.UUID) error {
	if err := s.requireSelfOrAdmin(actor, id); err != nil {
		return err
	}
	return s.Store.DeleteUser(ctx, id)
}

func (s *Service) requireSelfOrAdmin(actor common.Principal, id uuid.UUID) error {
	if actor.Role == string(RoleAdmin) {
		return nil
	}
	if actor.ID == id.String() {
		return nil
	}
	return common.NewAppError("FORBIDDEN", "forbidden", http.StatusForbidden, nil)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
