package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"timepay/internal/requestctx"
)

const DefaultTokenTTL = 12 * time.Hour

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	Store  UserStore
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

func NewService(store UserStore, secret string) *Service {
	return &Service{Store: store, Secret: secret, TTL: DefaultTokenTTL, Now: time.Now}
}

type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Role        string    `json:"role"`
	EmployeeID  string    `json:"employeeId,omitempty"`
}

// Login checks the password and issues an access token. Unknown users and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	now := s.Now()
	token, err := GenerateToken(s.Secret, Claims{
		UserID:     user.ID,
		TenantID:   user.TenantID,
		EmployeeID: user.EmployeeID,
		Role:       user.Role,
	}, now, s.TTL)
	if err != nil {
		return Token{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return Token{AccessToken: token, ExpiresAt: now.Add(s.TTL), Role: user.Role, EmployeeID: user.EmployeeID}, nil
}

// Authenticate turns a bearer token into the request actor.
func (s *Service) Authenticate(token string) (requestctx.Actor, error) {
	claims, err := ParseToken(s.Secret, token)
	if err != nil {
		return requestctx.Actor{}, err
	}
	return requestctx.Actor{
		UserID:     claims.UserID,
		TenantID:   claims.TenantID,
		EmployeeID: claims.EmployeeID,
		Role:       claims.Role,
	}, nil
}
