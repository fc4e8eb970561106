package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"cashbook/internal/auth"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/model"
	"cashbook/internal/repository"
)

// Session is the result of a successful signup or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService handles signup, login and session checks.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	issuer   *auth.SessionIssuer
	log      *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.Hasher, issuer *auth.SessionIssuer, log *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		log:      log,
	}
}

// Signup creates a user with a hashed password and opens a session. The
// username check and the insert are not atomic; the unique index turns a
// lost race into ErrUserAlreadyExists.
func (s *authService) Signup(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", apperrors.ErrValidation, auth.MaxPasswordBytes)
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	cred, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: cred.String(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.openSession(user)
}

// Login verifies the password and opens a session. Legacy plaintext
// credentials are rehashed before the session is returned.
func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.VerifyMissing(password)
			s.log.InfoContext(ctx, "login rejected", "reason", "unknown user")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	cred := auth.ParseCredential(user.Password)
	if !s.hasher.Verify(password, cred) {
		s.log.InfoContext(ctx, "login rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}

	if cred.NeedsUpgrade() {
		upgraded, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.UpdatePassword(ctx, user.ID, upgraded.String()); err != nil {
			return nil, fmt.Errorf("upgrade legacy credential: %w", err)
		}
		user.Password = upgraded.String()
		s.log.InfoContext(ctx, "legacy credential upgraded", "user_id", user.ID)
	}

	return s.openSession(user)
}

// Authenticate resolves a session token into the caller's identity.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	identity, err := s.issuer.Validate(ctx, token)
	if err != nil {
		s.log.DebugContext(ctx, "session rejected", "error", err)
		return nil, err
	}
	return identity, nil
}

// Logout revokes the token best-effort; the caller clears the cookie either way.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.issuer.Revoke(ctx, token); err != nil {
		s.log.WarnContext(ctx, "session revocation failed", "error", err)
		return err
	}
	return nil
}

func (s *authService) openSession(user *model.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}
