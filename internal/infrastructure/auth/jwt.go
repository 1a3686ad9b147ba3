package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/fintrack/internal/domain"
)

// Issuer is stamped into tokens minted by this service.
const Issuer = "fintrack"

// Claims represents the JWT claims. The subject is in RegisteredClaims.Subject;
// a non-empty Provider marks a federated identity.
type Claims struct {
	Provider string `json:"idp,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the authenticated caller.
func (c *Claims) Principal() domain.Principal {
	if c.Provider != "" {
		return domain.Principal{Kind: domain.PrincipalFederated, Subject: c.Subject, Provider: c.Provider}
	}
	return domain.Principal{Kind: domain.PrincipalLocal, Subject: c.Subject}
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Generate signs a token for the principal.
func (m *JWTManager) Generate(p domain.Principal) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if p.Kind == domain.PrincipalFederated {
		claims.Provider = p.Provider
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a JWT token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	if err := claims.Principal().Validate(); err != nil {
		return nil, err
	}

	return claims, nil
}
