package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
)

type fakeUserRepository struct {
	parUsername map[string]*models.User
}

func (r *fakeUserRepository) Create(_ context.Context, user *models.User) error {
	user.ID = len(r.parUsername) + 1
	r.parUsername[user.Username] = user
	return nil
}

func (r *fakeUserRepository) GetByID(_ context.Context, id int) (*models.User, error) {
	for _, user := range r.parUsername {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := r.parUsername[username]; ok {
		copie := *user
		return &copie, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepository) EnsureGroup(context.Context, string) (*models.PermissionGroup, bool, error) {
	return &models.PermissionGroup{ID: 1}, false, nil
}

func (r *fakeUserRepository) GrantPermissions(context.Context, int, []string) (int, error) {
	return 0, nil
}

func (r *fakeUserRepository) AddToGroup(context.Context, int, int) error { return nil }

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := HashPassword("secret-staff")
	require.NoError(t, err)

	users := &fakeUserRepository{parUsername: map[string]*models.User{
		"staff": {ID: 1, Username: "staff", PasswordHash: hash, IsStaff: true},
		"membre": {ID: 2, Username: "membre", PasswordHash: hash},
	}}
	svc := NewAuthService(users, "test-secret", discardLogger())

	t.Run("issues a verifiable token", func(t *testing.T) {
		user, token, err := svc.Login(ctx, LoginInput{Username: "staff", Password: "secret-staff"})
		require.NoError(t, err)
		assert.Empty(t, user.PasswordHash, "hash never leaves the service")

		parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, float64(1), claims["user_id"])
		assert.Equal(t, "staff", claims["username"])
		assert.Equal(t, true, claims["is_staff"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, LoginInput{Username: "staff", Password: "devine"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := svc.Login(ctx, LoginInput{Username: "fantome", Password: "secret-staff"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("non-staff account", func(t *testing.T) {
		_, _, err := svc.Login(ctx, LoginInput{Username: "membre", Password: "secret-staff"})
		assert.ErrorIs(t, err, ErrStaffRequired)
	})
}
