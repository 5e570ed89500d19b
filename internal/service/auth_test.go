package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"echo-diary/internal/config"
	"echo-diary/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	return db
}

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(openTestDB(t), config.Default().Auth)
}

func TestSignup_DuplicateConflicts(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	u, err := s.Signup(ctx, "u1", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "pw", u.Password)

	_, err = s.Signup(ctx, "u1", "other")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.CreateUser(ctx, "u1", "other", model.RoleUser)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUser_Validation(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "  ", "pw", model.RoleUser)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateUser(ctx, "u", "", model.RoleUser)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateUser(ctx, "u", "pw", model.Role("root"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()
	_, err := s.Signup(ctx, "u1", "pw")
	require.NoError(t, err)

	u, err := s.Login(ctx, "u1", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.Username)

	_, err = s.Login(ctx, "u1", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureAdmin(ctx))
	require.NoError(t, s.EnsureAdmin(ctx))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, AdminUsername, users[0].Username)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
}

func TestLogin_AdminReseededWhenMissing(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	u, err := s.Login(ctx, AdminUsername, "admin1234")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = s.Login(ctx, AdminUsername, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignup_ReservedAdminWithSeedMissing(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, AdminUsername, "attacker")
	assert.ErrorIs(t, err, ErrConflict)

	u, err := s.Login(ctx, AdminUsername, "admin1234")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	var admins int64
	require.NoError(t, s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)
}

func TestToken_RoundTrip(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()
	u, err := s.Signup(ctx, "u1", "pw")
	require.NoError(t, err)

	raw, err := s.IssueToken(u)
	require.NoError(t, err)

	claims, err := s.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "u1", claims.Username)
	assert.Equal(t, model.RoleUser, claims.Role)

	got, err := s.Authenticate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	s := newTestAuth(t)
	u := &model.User{ID: "user-1", Username: "u1", Role: model.RoleUser}

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		issued := time.Now().Add(-3 * time.Hour)
		old := *s
		old.now = func() time.Time { return issued }
		raw, err := old.IssueToken(u)
		require.NoError(t, err)

		_, err = s.ParseToken(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := *s
		other.secret = []byte("someone-else")
		raw, err := other.IssueToken(u)
		require.NoError(t, err)

		_, err = s.ParseToken(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other algorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(s.secret)
		require.NoError(t, err)

		_, err = s.ParseToken(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		raw, err := s.IssueToken(&model.User{Username: "ghost"})
		require.NoError(t, err)

		_, err = s.ParseToken(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	s := newTestAuth(t)
	raw, err := s.IssueToken(&model.User{ID: "deleted-user", Username: "gone"})
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorizeAdminAndCanMutate(t *testing.T) {
	admin := &model.User{ID: "a", Role: model.RoleAdmin}
	user := &model.User{ID: "u", Role: model.RoleUser}

	assert.NoError(t, AuthorizeAdmin(admin))
	assert.ErrorIs(t, AuthorizeAdmin(user), ErrForbidden)
	assert.ErrorIs(t, AuthorizeAdmin(nil), ErrForbidden)

	assert.True(t, CanMutate(admin, "someone"))
	assert.True(t, CanMutate(user, "u"))
	assert.False(t, CanMutate(user, "someone"))
	assert.False(t, CanMutate(user, ""))
	assert.False(t, CanMutate(nil, "u"))
}
