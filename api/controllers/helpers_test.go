package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/api/middleware"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/civictrack/civictrack-backend/pkg/types"
)

func withIdentity(req *http.Request, role enums.Role) (*http.Request, uuid.UUID) {
	id := uuid.New()
	ctx := middleware.WithIdentity(req.Context(), &pkgAuth.Identity{UserID: id, Role: role})
	return req.WithContext(ctx), id
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder, data any) types.SuccessEnvelope {
	t.Helper()
	var env struct {
		types.SuccessEnvelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env.SuccessEnvelope
}
