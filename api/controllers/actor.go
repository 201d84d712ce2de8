package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/api/middleware"
	"github.com/civictrack/civictrack-backend/internal/scope"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

func actorFromRequest(r *http.Request) (scope.Actor, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		return scope.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	return scope.Actor{UserID: identity.UserID, Role: identity.Role}, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid "+key)
	}
	return id, nil
}
