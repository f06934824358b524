package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/config"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/middleware"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type memUserRepo struct {
	users map[string]*model.User
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.Username] = u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok || !u.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func newAuthFixture(t *testing.T) (AuthService, *config.Config) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &memUserRepo{users: map[string]*model.User{
		"carol": {
			ID: 2, Username: "carol", Name: "Carol Cashier", PasswordHash: string(hash),
			Role: model.RoleCashier, CanControlCashRegister: true, Active: true,
		},
		"mallory": {
			ID: 9, Username: "mallory", Name: "Mallory", PasswordHash: string(hash),
			Role: model.RoleCashier, Active: false,
		},
	}}
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8}
	return NewAuthService(users, cfg), cfg
}

func TestLogin(t *testing.T) {
	svc, cfg := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "carol", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, model.RoleCashier, resp.Role)
	assert.Equal(t, 8*3600, resp.ExpiresIn)

	// The token must round-trip with the identity snapshot intact.
	claims := &middleware.JWTClaims{}
	token, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, uint(2), claims.UserID)
	assert.Equal(t, "Carol Cashier", claims.Name)
	assert.True(t, claims.CanControlCashRegister)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	cases := []dto.LoginRequest{
		{Username: "carol", Password: "wrong"},
		{Username: "nobody", Password: "s3cret"},
		{Username: "mallory", Password: "s3cret"}, // deactivated account
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		kind, ok := apierror.KindOf(err)
		require.True(t, ok)
		// Wrong password and unknown user are indistinguishable on purpose.
		assert.Equal(t, apierror.KindForbidden, kind)
		assert.EqualError(t, err, "invalid credentials")
	}
}
