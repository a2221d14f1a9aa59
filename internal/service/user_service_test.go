package service

import (
	"context"
	"testing"

	"studybud/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "CorrectHorse9!"

func newTestUserService(repo *userRepoStub) *UserService {
	return NewUserServiceWithCost(repo, bcrypt.MinCost)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestUserService(noopUserRepo())

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"Bad Username", RegisterInput{Username: "a b", Email: "a@example.com", Password: testPassword}},
		{"Bad Email", RegisterInput{Username: "ann", Email: "nope", Password: testPassword}},
		{"Weak Password", RegisterInput{Username: "ann", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if username == "taken" {
			return &models.User{ID: 1, Username: username}, nil
		}
		return nil, nil
	}
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "used@example.com" {
			return &models.User{ID: 2, Email: email}, nil
		}
		return nil, nil
	}
	svc := newTestUserService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "TAKEN", Email: "x@example.com", Password: testPassword})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username already taken")

	_, err = svc.Register(context.Background(), RegisterInput{Username: "fresh", Email: "Used@Example.com", Password: testPassword})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestRegister_HashesPassword(t *testing.T) {
	repo := noopUserRepo()
	var stored *models.User
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 3
		stored = u
		return nil
	}
	svc := newTestUserService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{Username: " Ann ", Email: "Ann@Example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, testPassword, stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(testPassword)))
}

func TestAuthenticate_SameErrorForUnknownAndWrong(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if username == "ann" {
			return &models.User{ID: 1, Username: "ann", Password: string(hash)}, nil
		}
		return nil, nil
	}
	svc := newTestUserService(repo)

	user, err := svc.Authenticate(context.Background(), "ANN", testPassword)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, wrongErr := svc.Authenticate(context.Background(), "ann", "WrongHorse9!")
	_, unknownErr := svc.Authenticate(context.Background(), "bob", testPassword)
	require.Error(t, wrongErr)
	require.Error(t, unknownErr)
	assert.True(t, models.HasCode(wrongErr, models.CodeAuthenticationFailed))
	assert.Equal(t, wrongErr.Error(), unknownErr.Error())
}

func TestUpdateProfile(t *testing.T) {
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "ann", Email: "ann@example.com"}, nil
	}
	repo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		switch username {
		case "ann":
			return &models.User{ID: 1, Username: "ann"}, nil
		case "bob":
			return &models.User{ID: 2, Username: "bob"}, nil
		}
		return nil, nil
	}
	svc := newTestUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), Actor{}, UpdateProfileInput{Username: "ann", Email: "ann@example.com"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	_, err = svc.UpdateProfile(context.Background(), Actor{UserID: 1}, UpdateProfileInput{Username: "bob", Email: "ann@example.com"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	user, err := svc.UpdateProfile(context.Background(), Actor{UserID: 1}, UpdateProfileInput{Username: "ann", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestDeleteUser_SelfOnly(t *testing.T) {
	repo := noopUserRepo()
	deleted := []uint{}
	repo.deleteFn = func(_ context.Context, id uint) error {
		deleted = append(deleted, id)
		return nil
	}
	svc := newTestUserService(repo)

	_, err := svc.DeleteUser(context.Background(), Actor{UserID: 1}, DeleteInput{ID: 2, Confirmed: true})
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	res, err := svc.DeleteUser(context.Background(), Actor{UserID: 1}, DeleteInput{})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionConfirming, res.Stage)

	res, err = svc.DeleteUser(context.Background(), Actor{UserID: 1}, DeleteInput{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionConfirmed, res.Stage)
	assert.Equal(t, []uint{1}, deleted)
}
