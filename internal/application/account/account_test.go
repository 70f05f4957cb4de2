package account_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/id"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*appaccount.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens, err := auth.NewJWTIssuer("test-secret", 0, 0)
	require.NoError(t, err)
	svc := appaccount.NewService(store.Users(), store.Admins(), auth.NewBcryptHasher(bcrypt.MinCost), tokens,
		id.NewUUIDGenerator(), observability.Nop())
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	s, err := svc.Register(ctx, appaccount.RegisterInput{Email: " Jane@Example.com ", Password: "secret123", Name: " Jane "})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", s.User.Email)
	assert.Equal(t, "Jane", s.User.Name)
	assert.NotEqual(t, "secret123", s.User.PasswordHash)

	p, err := svc.Authenticate(s.Token, domaccount.KindUser)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, p.ID)
	_, err = svc.Authenticate(s.Token, domaccount.KindAdmin)
	assert.ErrorIs(t, err, appaccount.ErrInvalidTokenType)
	_, err = svc.Authenticate("garbage", domaccount.KindUser)
	assert.ErrorIs(t, err, appaccount.ErrInvalidToken)

	_, err = svc.Register(ctx, appaccount.RegisterInput{Email: "jane@example.com", Password: "secret123", Name: "Jane"})
	assert.ErrorIs(t, err, appaccount.ErrEmailTaken)

	_, err = svc.Register(ctx, appaccount.RegisterInput{Email: "nope", Password: "123", Name: "J"})
	ve, ok := application.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 3)

	_, err = svc.Login(ctx, appaccount.LoginInput{Email: "JANE@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, appaccount.LoginInput{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appaccount.ErrInvalidCredentials)
	_, err = svc.Login(ctx, appaccount.LoginInput{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, appaccount.ErrInvalidCredentials)
}

func TestProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	s, err := svc.Register(ctx, appaccount.RegisterInput{Email: "jane@example.com", Password: "secret123", Name: "Jane"})
	require.NoError(t, err)

	u, err := svc.UpdateProfile(ctx, s.User.ID, domaccount.Profile{City: "Springfield"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name, "empty name keeps the current one")
	assert.Equal(t, "Springfield", u.City)

	_, err = svc.UpdateProfile(ctx, s.User.ID, domaccount.Profile{Name: "J"})
	_, ok := application.AsValidation(err)
	assert.True(t, ok)

	err = svc.ChangePassword(ctx, appaccount.ChangePasswordInput{UserID: s.User.ID, CurrentPassword: "nope", NewPassword: "another123"})
	assert.ErrorIs(t, err, appaccount.ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, appaccount.ChangePasswordInput{UserID: s.User.ID, CurrentPassword: "secret123", NewPassword: "another123"}))
	_, err = svc.Login(ctx, appaccount.LoginInput{Email: "jane@example.com", Password: "another123"})
	require.NoError(t, err)

	_, err = svc.Me(ctx, uuid.NewString())
	assert.ErrorIs(t, err, appaccount.ErrNotFound)
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("admin123")
	require.NoError(t, err)
	require.NoError(t, store.Admins().Create(ctx, &domaccount.Admin{ID: uuid.NewString(), Email: "admin@shop-hub.com", Name: "Admin", PasswordHash: hash}))

	s, err := svc.AdminLogin(ctx, appaccount.LoginInput{Email: "admin@shop-hub.com", Password: "admin123"})
	require.NoError(t, err)
	require.NotNil(t, s.Admin)

	p, err := svc.Authenticate(s.Token, domaccount.KindAdmin)
	require.NoError(t, err)
	a, err := svc.AdminMe(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@shop-hub.com", a.Email)

	_, err = svc.AdminLogin(ctx, appaccount.LoginInput{Email: "admin@shop-hub.com", Password: "nope"})
	assert.ErrorIs(t, err, appaccount.ErrInvalidCredentials)
}
