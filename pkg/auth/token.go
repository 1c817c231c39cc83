package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL applies when no TTL is configured or passed.
const defaultTokenTTL = 15 * time.Minute

// Claims is the token payload: standard registered claims plus the scopes
// granted to the subject.
type Claims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Token pairs an encoded access token with its type, as returned to
// clients.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Auth issues and verifies tokens and hashes passwords according to one
// Config.
type Auth struct {
	config Config
	hasher *Hasher
}

// New creates an Auth from the config.
func New(config Config) (*Auth, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	hasher, err := NewHasher(config.PasswordAlgorithm)
	if err != nil {
		return nil, err
	}
	return &Auth{config: config, hasher: hasher}, nil
}

// HashPassword hashes a password with the configured algorithm.
func (a *Auth) HashPassword(password string) (string, error) {
	return a.hasher.Hash(password)
}

// VerifyPassword checks a password against an encoded hash.
func (a *Auth) VerifyPassword(password, encoded string) (bool, error) {
	return a.hasher.Verify(password, encoded)
}

func (a *Auth) signingMethod() jwt.SigningMethod {
	switch a.config.Algorithm {
	case AlgHS384:
		return jwt.SigningMethodHS384
	case AlgHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// EncodeToken signs the claims into a compact token string.
func (a *Auth) EncodeToken(claims Claims) (string, error) {
	token := jwt.NewWithClaims(a.signingMethod(), claims)
	signed, err := token.SignedString([]byte(a.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// DecodeToken verifies the signature, algorithm and expiry of a token and
// returns its claims.
func (a *Auth) DecodeToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.config.SecretKey), nil
	}, jwt.WithValidMethods([]string{a.config.Algorithm}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// CreateAccessToken issues a token for the subject with the given scopes.
// A non-positive ttl falls back to the configured TTL, then to 15 minutes.
func (a *Auth) CreateAccessToken(subject string, scopes []string, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = a.config.AccessTokenTTL
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := a.EncodeToken(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// HasRequiredScopes reports whether the user's scopes are a superset of
// the required scopes.
func HasRequiredScopes(userScopes, requiredScopes []string) bool {
	granted := make(map[string]struct{}, len(userScopes))
	for _, scope := range userScopes {
		granted[scope] = struct{}{}
	}
	for _, scope := range requiredScopes {
		if _, ok := granted[scope]; !ok {
			return false
		}
	}
	return true
}
