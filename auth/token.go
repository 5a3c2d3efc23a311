package auth

import (
	"fmt"
	"slices"
	"space-chat/domain"
	"space-chat/errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ServiceRole is carried by collaborators allowed to provision rooms and notifications.
	ServiceRole = "service"
	issuer      = "space-chat"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

func (c CustomClaims) HasRole(role string) bool { return slices.Contains(c.Roles, role) }

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
// Issuing tokens belongs to the identity collaborator, it is kept here for tooling and tests.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) TokenIssuer {
	return TokenIssuer{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT for a specific user.
func (t TokenIssuer) GenerateToken(userID string, roles []string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func (t TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errors.ErrInvalidToken)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if err := domain.ParticipantID(claims.UserID).Validate(); err != nil {
		return nil, fmt.Errorf("user_id claim: %w", errors.ErrInvalidToken)
	}
	return claims, nil
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
