package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/civictrack/civictrack-backend/internal/users"
	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

// seed creates the first super-admin so the department and admin
// endpoints can be reached on a fresh database.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	name := flag.String("name", envOr("CIVICTRACK_SEED_NAME", "Super Admin"), "super-admin display name")
	email := flag.String("email", os.Getenv("CIVICTRACK_SEED_EMAIL"), "super-admin email")
	password := flag.String("password", os.Getenv("CIVICTRACK_SEED_PASSWORD"), "super-admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "missing -email or -password")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "email": *email})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	svc, err := users.NewService(users.ServiceParams{DB: dbClient.DB(), PasswordConfig: cfg.Password, Logger: logg})
	requireResource(logg, "users service", err)

	created, err := svc.Create(ctx, users.CreateUserRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     string(enums.RoleSuperAdmin),
	})
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		logg.Info(ctx, "super-admin already present")
	case err != nil:
		logg.Error(ctx, "failed to seed super-admin", err)
		os.Exit(1)
	default:
		logg.Info(logg.WithUserID(ctx, created.ID.String()), "super-admin created")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
