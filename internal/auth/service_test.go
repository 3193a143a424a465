package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/simdi-agro/billing-api/internal/auth"
	"github.com/simdi-agro/billing-api/internal/common"
)

type fakeUsers struct {
	user *auth.User
	hash string
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*auth.User, string, error) {
	if f.user == nil || f.user.Username != username {
		return nil, "", auth.ErrUserNotFound
	}
	return f.user, f.hash, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, auth.ErrUserNotFound
	}
	return f.user, nil
}

func newTestService(t *testing.T, now func() time.Time) (*auth.Service, *fakeUsers) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hash, err := argon2id.CreateHash("s3cret", argon2id.DefaultParams)
	require.NoError(t, err)
	users := &fakeUsers{
		user: &auth.User{ID: uuid.New(), Username: "admin", DisplayName: "Admin"},
		hash: hash,
	}

	svc, err := auth.NewService(auth.ServiceConfig{
		Users:      users,
		Redis:      rdb,
		Secret:     "test-secret",
		SessionTTL: time.Hour,
		Now:        now,
	})
	require.NoError(t, err)
	return svc, users
}

func TestLoginAndParse(t *testing.T) {
	svc, users := newTestService(t, nil)

	session, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "admin", session.User.Username)
	require.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	userID, err := svc.ParseAccessToken(context.Background(), session.Token)
	require.NoError(t, err)
	require.Equal(t, users.user.ID.String(), userID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Login(context.Background(), "nobody", "s3cret")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestLogoutDenylistsToken(t *testing.T) {
	svc, _ := newTestService(t, nil)

	session, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(context.Background(), session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))

	_, err = svc.ParseAccessToken(context.Background(), session.Token)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	issued := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	clock := issued
	svc, _ := newTestService(t, func() time.Time { return clock })

	session, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	require.Equal(t, issued.Add(time.Hour), session.ExpiresAt)

	clock = issued.Add(2 * time.Hour)
	_, err = svc.ParseAccessToken(context.Background(), session.Token)
	require.Error(t, err)
}

func TestParseGarbageToken(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ParseAccessToken(context.Background(), "not-a-token")
	require.Error(t, err)

	_, err = svc.ParseAccessToken(context.Background(), "")
	require.Error(t, err)
}
