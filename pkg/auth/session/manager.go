package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civictrack/civictrack-backend/pkg/config"
	redisclient "github.com/civictrack/civictrack-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	RefreshSessionKey(jti string) string
}

// Registry tracks which refresh tokens are still live. A refresh token is
// honoured only while its jti is registered.
type Registry interface {
	Register(ctx context.Context, jti, userID string) error
	Revoke(ctx context.Context, jti string) error
	HasSession(ctx context.Context, jti string) (bool, error)
}

// Manager stores refresh sessions in Redis keyed by token jti.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if ttl <= cfg.AccessTokenTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, cfg.AccessTokenTTL())
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Register records a freshly minted refresh token.
func (m *Manager) Register(ctx context.Context, jti, userID string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.Set(ctx, m.keyer.RefreshSessionKey(jti), userID, m.ttl)
}

// Revoke deletes the session tied to the jti.
func (m *Manager) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.Del(ctx, m.keyer.RefreshSessionKey(jti))
}

// HasSession reports whether the jti still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.keyer.RefreshSessionKey(jti)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewJTI produces the identifier used as the JWT jti and Redis key.
func NewJTI() string {
	return uuid.NewString()
}
