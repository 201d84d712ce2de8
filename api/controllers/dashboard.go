package controllers

import (
	"net/http"

	"github.com/civictrack/civictrack-backend/api/responses"
	"github.com/civictrack/civictrack-backend/internal/dashboard"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

// DashboardStats returns the statistics block matching the caller's role.
func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
