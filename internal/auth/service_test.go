package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/testdb"
	"github.com/civictrack/civictrack-backend/internal/users"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

type memoryRegistry struct {
	mu   sync.Mutex
	live map[string]string
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{live: map[string]string{}}
}

func (m *memoryRegistry) Register(_ context.Context, jti, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[jti] = userID
	return nil
}

func (m *memoryRegistry) Revoke(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, jti)
	return nil
}

func (m *memoryRegistry) HasSession(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[jti]
	return ok, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "access-secret",
		RefreshSecret:          "refresh-secret",
		Issuer:                 "civictrack",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func buildTestService(t *testing.T) (*gorm.DB, Service, *memoryRegistry) {
	t.Helper()
	conn := testdb.Open(t)
	passwordCfg := config.PasswordConfig{ArgonTime: 1, ArgonMemoryKB: 1024}
	profiles, err := users.NewService(users.ServiceParams{DB: conn, PasswordConfig: passwordCfg})
	require.NoError(t, err)
	registry := newMemoryRegistry()
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		Profiles:       profiles,
		Sessions:       registry,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: passwordCfg,
	})
	require.NoError(t, err)
	return conn, svc, registry
}

func TestRegisterThenLogin(t *testing.T) {
	_, svc, registry := buildTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Name:     "Cara",
		Email:    "cara@example.com",
		Password: "secret-pass",
		Role:     "citizen",
	})
	require.NoError(t, err)
	assert.Equal(t, "cara@example.com", registered.User.Email)
	assert.Len(t, registry.live, 1)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleCitizen, claims.Role)
	assert.Equal(t, registered.User.ID, claims.UserID)

	session, err := svc.Login(ctx, LoginRequest{Email: "cara@example.com", Password: "secret-pass", Role: "citizen"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.RefreshToken)
	require.NotNil(t, session.User.LastLoginAt)
}

func TestLoginRejections(t *testing.T) {
	conn, svc, _ := buildTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Name: "Cara", Email: "cara@example.com", Password: "secret-pass", Role: "citizen"})
	require.NoError(t, err)

	cases := map[string]LoginRequest{
		"wrong password": {Email: "cara@example.com", Password: "nope", Role: "citizen"},
		"wrong role":     {Email: "cara@example.com", Password: "secret-pass", Role: "admin"},
		"unknown role":   {Email: "cara@example.com", Password: "secret-pass", Role: "mayor"},
		"unknown email":  {Email: "who@example.com", Password: "secret-pass", Role: "citizen"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(ctx, req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		})
	}

	require.NoError(t, conn.Model(&models.User{}).Where("email = ?", "cara@example.com").UpdateColumn("is_active", false).Error)
	_, err = svc.Login(ctx, LoginRequest{Email: "cara@example.com", Password: "secret-pass", Role: "citizen"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "cara@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRegisterRejections(t *testing.T) {
	_, svc, _ := buildTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Root", Email: "root@city.gov", Password: "secret-pass", Role: "super-admin"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@city.gov", Password: "secret-pass", Role: "admin"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@city.gov", Password: "secret-pass", Role: "citizen"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	conn, svc, _ := buildTestService(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Name: "Old", Email: "old@example.com", PasswordHash: string(legacy), Role: enums.RoleCitizen, IsActive: true}
	require.NoError(t, conn.Create(&user).Error)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "old@example.com", Password: "old-secret", Role: "citizen"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", user.ID).Error)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
}

func TestRefreshAndLogout(t *testing.T) {
	_, svc, registry := buildTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterRequest{Name: "Cara", Email: "cara@example.com", Password: "secret-pass", Role: "citizen"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	_, err = svc.Refresh(ctx, session.AccessToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Refresh(ctx, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.Logout(ctx, session.RefreshToken))
	assert.Empty(t, registry.live)
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.Logout(ctx, "garbage"))
}
