package service

import (
	"context"
	"strings"
	"sync"

	"studybud/internal/models"
	"studybud/internal/observability"
	"studybud/internal/repository"
	"studybud/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login and account management.
type UserService struct {
	users repository.UserRepository
	cost  int
}

// RegisterInput represents the input for creating an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput represents the editable profile fields.
type UpdateProfileInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserDeletion reports where an account delete request ended up.
type UserDeletion struct {
	Stage models.DeletionStage `json:"stage"`
	User  *models.User         `json:"user,omitempty"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work as a real check so unknown
// usernames are not distinguishable by timing.
func compareDummy(password string, cost int) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("studybud-placeholder-password"), cost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// NewUserService creates a UserService hashing passwords at bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository) *UserService {
	return NewUserServiceWithCost(users, bcrypt.DefaultCost)
}

// NewUserServiceWithCost creates a UserService with an explicit bcrypt cost.
func NewUserServiceWithCost(users repository.UserRepository, cost int) *UserService {
	return &UserService{users: users, cost: cost}
}

// Register validates and creates a new account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := models.NormalizeUsername(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ensureAvailable(ctx, 0, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return nil, models.NewValidationError("username already taken")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password. The error never says which one was wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, models.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		compareDummy(password, s.cost)
		observability.RecordAuthAttempt(false)
		return nil, models.NewAuthenticationError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.RecordAuthAttempt(false)
		return nil, models.NewAuthenticationError()
	}
	observability.RecordAuthAttempt(true)
	return user, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// CurrentUser returns the actor's own account.
func (s *UserService) CurrentUser(ctx context.Context, actor Actor) (*models.User, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, actor.UserID)
}

// UpdateProfile changes the actor's username and email.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, in UpdateProfileInput) (*models.User, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	username := models.NormalizeUsername(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ensureAvailable(ctx, user.ID, username, email); err != nil {
		return nil, err
	}

	user.Username = username
	user.Email = email
	if err := s.users.Update(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return nil, models.NewValidationError("username or email already in use")
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the actor's own account once confirmed. Hosted rooms
// survive without a host; messages and participations go with the account.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, in DeleteInput) (*UserDeletion, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	id := in.ID
	if id == 0 {
		id = actor.UserID
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, &user.ID, "you can only delete your own account"); err != nil {
		return nil, err
	}

	stage, err := runDeletion("user", in, func() error {
		return s.users.Delete(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return &UserDeletion{Stage: stage, User: user}, nil
}

// ensureAvailable fails when username or email belongs to a user other than selfID.
func (s *UserService) ensureAvailable(ctx context.Context, selfID uint, username, email string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return models.NewValidationError("username already taken")
	}

	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return models.NewValidationError("email already registered")
	}
	return nil
}
