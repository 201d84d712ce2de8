package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civictrack/civictrack-backend/api/controllers"
	"github.com/civictrack/civictrack-backend/api/middleware"
	"github.com/civictrack/civictrack-backend/internal/auth"
	"github.com/civictrack/civictrack-backend/internal/complaints"
	"github.com/civictrack/civictrack-backend/internal/dashboard"
	"github.com/civictrack/civictrack-backend/internal/departments"
	"github.com/civictrack/civictrack-backend/internal/media"
	"github.com/civictrack/civictrack-backend/internal/users"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/metrics"
	"github.com/civictrack/civictrack-backend/pkg/redis"
)

// Params carries everything NewRouter mounts. Registry, RateLimiter and the
// health pingers are optional.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Verifier    *pkgAuth.Verifier
	RateLimiter redis.RateLimiter
	Registry    *prometheus.Registry
	Health      map[string]controllers.Pinger

	Auth        auth.Service
	Complaints  complaints.Service
	Departments departments.Service
	Users       users.Service
	Dashboard   dashboard.Service
	Media       media.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	httpMetrics := metrics.NewHTTPMetrics(p.Registry)
	cookies := pkgAuth.CookieOptionsFor(cfg.App, cfg.JWT)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Health))
	})
	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(p.Verifier, logg)
	superAdmin := middleware.RequireRole(logg, enums.RoleSuperAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimiter, httpMetrics, logg)).
				Post("/register", controllers.AuthRegister(p.Auth, cookies, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, httpMetrics, logg)).
				Post("/login", controllers.AuthLogin(p.Auth, cookies, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Auth, cookies, logg))
			r.Post("/logout", controllers.AuthLogout(p.Auth, cookies, logg))
		})

		r.Route("/public", func(r chi.Router) {
			r.Get("/categories", controllers.PublicCategories(p.Departments, logg))
			r.Get("/departments", controllers.PublicDepartments(p.Departments, logg))
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/{name}/categories", controllers.DepartmentCategories(p.Departments, logg))
			r.Group(func(r chi.Router) {
				r.Use(authenticated, superAdmin)
				r.Get("/", controllers.DepartmentsList(p.Departments, logg))
				r.Post("/", controllers.DepartmentCreate(p.Departments, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", controllers.ComplaintsList(p.Complaints, logg))
				r.Post("/", controllers.ComplaintCreate(p.Complaints, logg))
				r.With(middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleSuperAdmin)).
					Patch("/", controllers.ComplaintsTargetedUpdate(p.Complaints, logg))
				r.Get("/{id}", controllers.ComplaintGet(p.Complaints, logg))
				r.Put("/{id}", controllers.ComplaintEdit(p.Complaints, logg))
				r.With(superAdmin).Delete("/{id}", controllers.ComplaintDelete(p.Complaints, logg))
			})

			r.Get("/dashboard/stats", controllers.DashboardStats(p.Dashboard, logg))

			r.With(middleware.IPRateLimit("upload", cfg.Upload.RatePerSecond, cfg.Upload.RateBurst, httpMetrics, logg)).
				Post("/upload", controllers.Upload(p.Media, cfg.Upload.MaxBytes, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.UsersMe(p.Users, logg))
				r.Put("/me", controllers.UsersUpdateMe(p.Users, logg))
				r.Patch("/me", controllers.UsersUpdateMe(p.Users, logg))
				r.With(superAdmin).Get("/", controllers.UsersList(p.Users, logg))
				r.With(superAdmin).Post("/", controllers.UserCreate(p.Users, logg))
			})

			r.With(superAdmin).Post("/admins", controllers.AdminCreate(p.Users, logg))
		})
	})

	return r
}
