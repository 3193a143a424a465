package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redis/go-redis/v9"

	"github.com/simdi-agro/billing-api/internal/common"
)

// User is an operator account. The shop runs with a handful of staff logins.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the login response payload.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// UserStore loads operator accounts.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Service issues and validates session tokens. Tokens are HS256 with a one
// hour lifetime; logout denylists the token id until its natural expiry.
type Service struct {
	users      UserStore
	redis      *redis.Client
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Users      UserStore
	Redis      *redis.Client
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	Now        func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "billing-api"
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		users:      cfg.Users,
		redis:      cfg.Redis,
		secret:     []byte(cfg.Secret),
		issuer:     issuer,
		sessionTTL: ttl,
		now:        nowFn,
	}, nil
}

func unauthorized(message string, err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, unauthorized("invalid credentials", nil)
	}
	user, hash, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, unauthorized("invalid credentials", err)
		}
		return Session{}, err
	}
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return Session{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return Session{}, unauthorized("invalid credentials", nil)
	}

	token, expiresAt, err := s.sign(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Logout denylists the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	parsed, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.redis == nil {
		return nil
	}
	ttl := time.Until(parsed.Expiration())
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, denyKey(parsed.JwtID()), "revoked", ttl).Err()
}

// ParseAccessToken validates a session token and returns the user id.
func (s *Service) ParseAccessToken(ctx context.Context, token string) (string, error) {
	parsed, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if s.redis != nil {
		exists, err := s.redis.Exists(ctx, denyKey(parsed.JwtID())).Result()
		if err == nil && exists > 0 {
			return "", unauthorized("session revoked", nil)
		}
	}
	return parsed.Subject(), nil
}

// Me returns the account behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, unauthorized("invalid session subject", err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, unauthorized("account no longer exists", err)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) sign(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	token, err := jwt.NewBuilder().
		Subject(userID.String()).
		Issuer(s.issuer).
		JwtID(uuid.NewString()).
		IssuedAt(now).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) parse(token string) (jwt.Token, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, unauthorized("missing token", nil)
	}
	parsed, err := jwt.ParseString(trimmed,
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, unauthorized("invalid token", err)
	}
	return parsed, nil
}

func denyKey(jti string) string {
	return "auth:deny:" + jti
}

// ErrUserNotFound is returned by stores when no account matches.
var ErrUserNotFound = errors.New("user not found")

type pgStore struct {
	pool *pgxpool.Pool
}

// NewUserStore constructs a pgx-backed user store.
func NewUserStore(pool *pgxpool.Pool) UserStore {
	return &pgStore{pool: pool}
}

func (s *pgStore) GetByUsername(ctx context.Context, username string) (*User, string, error) {
	var user User
	var hash string
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, password_hash, created_at
		FROM users WHERE lower(username) = lower($1)
	`, username).Scan(&user.ID, &user.Username, &user.DisplayName, &hash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	return &user, hash, nil
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
