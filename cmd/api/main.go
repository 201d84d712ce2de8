package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/civictrack/civictrack-backend/api/controllers"
	"github.com/civictrack/civictrack-backend/api/routes"
	"github.com/civictrack/civictrack-backend/internal/auth"
	"github.com/civictrack/civictrack-backend/internal/complaints"
	"github.com/civictrack/civictrack-backend/internal/dashboard"
	"github.com/civictrack/civictrack-backend/internal/departments"
	"github.com/civictrack/civictrack-backend/internal/media"
	"github.com/civictrack/civictrack-backend/internal/users"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	"github.com/civictrack/civictrack-backend/pkg/auth/session"
	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/imagekit"
	"github.com/civictrack/civictrack-backend/pkg/instance"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/migrate"
	"github.com/civictrack/civictrack-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	departmentService, err := departments.NewService(departments.ServiceParams{
		DB:        dbClient.DB(),
		Logger:    logg,
		CacheSize: cfg.Cache.CategoriesSize,
		CacheTTL:  cfg.Cache.CategoriesTTL,
	})
	requireService(logg, "departments", err)

	complaintService, err := complaints.NewService(complaints.ServiceParams{
		DB:          dbClient.DB(),
		Departments: departmentService,
		Logger:      logg,
	})
	requireService(logg, "complaints", err)

	userService, err := users.NewService(users.ServiceParams{
		DB:             dbClient.DB(),
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireService(logg, "users", err)

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Profiles:       userService,
		Sessions:       sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireService(logg, "auth", err)

	dashboardService, err := dashboard.NewService(dashboard.ServiceParams{
		DB:         dbClient.DB(),
		Complaints: complaintService,
	})
	requireService(logg, "dashboard", err)

	mediaParams := media.ServiceParams{
		MaxBytes:      cfg.Upload.MaxBytes,
		DefaultFolder: cfg.Upload.DefaultFolder,
		Logger:        logg,
	}
	if cfg.ImageKit.Configured() {
		uploader, err := imagekit.NewClient(cfg.ImageKit.PrivateKey, imagekit.WithUploadURL(cfg.ImageKit.UploadURL))
		requireService(logg, "imagekit", err)
		mediaParams.Uploader = uploader
	} else {
		logg.Warn(context.Background(), "imagekit credentials missing, uploads will fail")
	}
	mediaService, err := media.NewService(mediaParams)
	requireService(logg, "media", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithField(context.Background(), "addr", addr)

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Verifier:    pkgAuth.NewVerifier(cfg.JWT, sessionManager).WithAccounts(userRepo),
			RateLimiter: redisClient,
			Registry:    registry,
			Health: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			Auth:        authService,
			Complaints:  complaintService,
			Departments: departmentService,
			Users:       userService,
			Dashboard:   dashboardService,
			Media:       mediaService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
