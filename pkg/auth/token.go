package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong token type or malformed input.
var ErrInvalidToken = errors.New("invalid token")

// MintAccessToken issues a signed access JWT using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg.Secret, cfg.Issuer, cfg.AccessTokenTTL()); err != nil {
		return "", err
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	claims := AccessTokenClaims{
		UserID:           payload.UserID,
		Email:            payload.Email,
		Role:             payload.Role,
		DepartmentID:     payload.DepartmentID,
		Type:             TokenTypeAccess,
		RegisteredClaims: registeredClaims(cfg.Issuer, now, cfg.AccessTokenTTL(), payload.JTI),
	}
	return sign(claims, cfg.Secret)
}

// ParseAccessToken validates an access JWT and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := parse(tokenString, claims, cfg.Secret, cfg.Issuer); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// MintRefreshToken issues a signed refresh JWT with the refresh secret.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload RefreshTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL()); err != nil {
		return "", err
	}
	if cfg.RefreshSecret == cfg.Secret {
		return "", fmt.Errorf("refresh secret must differ from access secret")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	claims := RefreshTokenClaims{
		UserID:           payload.UserID,
		Email:            payload.Email,
		Role:             payload.Role,
		Type:             TokenTypeRefresh,
		RegisteredClaims: registeredClaims(cfg.Issuer, now, cfg.RefreshTokenTTL(), payload.JTI),
	}
	return sign(claims, cfg.RefreshSecret)
}

// ParseRefreshToken validates a refresh JWT and returns typed claims.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := parse(tokenString, claims, cfg.RefreshSecret, cfg.Issuer); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func checkSigningConfig(secret, issuer string, ttl time.Duration) error {
	if secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("jwt ttl must be positive")
	}
	return nil
}

func registeredClaims(issuer string, now time.Time, ttl time.Duration, jti string) jwt.RegisteredClaims {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		jti = uuid.NewString()
	}
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}

func sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func parse(tokenString string, claims jwt.Claims, secret, issuer string) error {
	if secret == "" || strings.TrimSpace(tokenString) == "" {
		return ErrInvalidToken
	}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
