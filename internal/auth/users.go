package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserRepo interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, u model.User) error
}

// Authenticator checks passwords and issues tokens. Usernames are
// case-insensitive.
type Authenticator struct {
	users UserRepo
	jwt   *JWTService
	ttl   time.Duration
}

func NewAuthenticator(users UserRepo, jwt *JWTService, ttl time.Duration) *Authenticator {
	return &Authenticator{users: users, jwt: jwt, ttl: ttl}
}

// Login returns a signed token for valid credentials. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, model.User, error) {
	u, err := a.users.GetUserByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}
	tok, err := a.jwt.GenerateToken(u.ID.String(), u.Role, a.ttl)
	if err != nil {
		return "", model.User{}, err
	}
	return tok, u, nil
}

// EnsureUser creates the user unless one with that name exists. The
// existing user is returned untouched.
func (a *Authenticator) EnsureUser(ctx context.Context, username, password string, role rbac.Role) (model.User, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return model.User{}, apperr.Validation("username and password are required")
	}
	if rbac.Position(string(role)) < 0 {
		return model.User{}, apperr.Validation("unknown role %q", role)
	}

	existing, err := a.users.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         string(role),
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
