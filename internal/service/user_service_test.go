package service

import (
	"context"
	"testing"

	"auctions/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Sup3r$ecret"

func memoryUsers() *userRepoStub {
	byName := map[string]*models.User{}
	var nextID uint
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			for _, u := range byName {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if u, ok := byName[username]; ok {
				return u, nil
			}
			return nil, models.NewNotFoundError("User", username)
		},
		createFn: func(_ context.Context, u *models.User) error {
			if _, ok := byName[u.Username]; ok {
				return models.NewDuplicateUsernameError()
			}
			nextID++
			u.ID = nextID
			byName[u.Username] = u
			return nil
		},
	}
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(memoryUsers()).WithBcryptCost(bcrypt.MinCost)

	user, err := svc.Register(ctx, RegisterInput{
		Username:     " alice ",
		Email:        "alice@example.com",
		Password:     strongPassword,
		Confirmation: strongPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, strongPassword, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(strongPassword)))

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: strongPassword, Confirmation: strongPassword})
	assertAppError(t, err, models.CodeDuplicateUsername)
}

func TestUserService_Register_Validation(t *testing.T) {
	svc := NewUserService(memoryUsers()).WithBcryptCost(bcrypt.MinCost)

	tests := []struct {
		name    string
		in      RegisterInput
		message string
	}{
		{"mismatch", RegisterInput{Username: "bob", Password: strongPassword, Confirmation: "other"}, "Passwords must match."},
		{"empty", RegisterInput{}, "Username and password are required"},
		{"bad username", RegisterInput{Username: "b b", Password: strongPassword, Confirmation: strongPassword}, ""},
		{"bad email", RegisterInput{Username: "bob", Email: "nope", Password: strongPassword, Confirmation: strongPassword}, ""},
		{"weak password", RegisterInput{Username: "bob", Password: "short", Confirmation: "short"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assertValidationError(t, err, tt.message)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(memoryUsers()).WithBcryptCost(bcrypt.MinCost)
	registered, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: strongPassword, Confirmation: strongPassword})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "carol", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "carol", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody", strongPassword)
	assertAppError(t, err, models.CodeUnauthorized)

	byID, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Username)
}
