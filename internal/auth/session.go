package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "cashbook/internal/errors"
)

// SessionLifetime is the fixed validity of a session token.
const SessionLifetime = 24 * time.Hour

// Claims represents JWT claims.
type Claims struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller derived from a valid session.
type Identity struct {
	UserID    uuid.UUID
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// SessionIssuer mints and validates signed session tokens.
type SessionIssuer struct {
	secret []byte
	store  TokenStoreInterface
	now    func() time.Time
}

// NewSessionIssuer creates a session issuer. store may be nil, in which case
// revoked tokens remain valid until they expire.
func NewSessionIssuer(secret string, store TokenStoreInterface) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		store:  store,
		now:    time.Now,
	}
}

// Issue signs a new session token for the user.
func (s *SessionIssuer) Issue(userID uuid.UUID, username string) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, claims, nil
}

// Validate verifies signature, expiry and revocation. Failures wrap
// errors.ErrMissingCredential or errors.ErrInvalidCredential.
func (s *SessionIssuer) Validate(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperrors.ErrMissingCredential
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCredential, err)
	}
	if claims.UserID == uuid.Nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: incomplete claims", apperrors.ErrInvalidCredential)
	}

	if s.store != nil {
		revoked, err := s.store.IsRevoked(ctx, claims.ID)
		if err == nil && revoked {
			return nil, fmt.Errorf("%w: revoked", apperrors.ErrInvalidCredential)
		}
	}

	return &Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke denylists the token until it would have expired. Tokens that no
// longer validate need no revocation.
func (s *SessionIssuer) Revoke(ctx context.Context, tokenString string) error {
	if s.store == nil || tokenString == "" {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.store.Revoke(ctx, claims.ID, ttl)
}

func (s *SessionIssuer) parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
