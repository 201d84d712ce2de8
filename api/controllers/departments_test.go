package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/internal/departments"
	"github.com/civictrack/civictrack-backend/internal/scope"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

type stubDepartmentsService struct {
	rows       []departments.DepartmentDTO
	categories []string
	err        error
	lookedUp   string
}

func (s *stubDepartmentsService) DepartmentForUser(context.Context, uuid.UUID) (*scope.Department, error) {
	return nil, scope.ErrDepartmentUnresolved
}

func (s *stubDepartmentsService) List(context.Context) ([]departments.DepartmentDTO, error) {
	return s.rows, s.err
}

func (s *stubDepartmentsService) Create(_ context.Context, req departments.CreateDepartmentRequest) (*departments.DepartmentDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &departments.DepartmentDTO{Name: req.Name}, nil
}

func (s *stubDepartmentsService) Categories(_ context.Context, name string) ([]string, error) {
	s.lookedUp = name
	return s.categories, s.err
}

func (s *stubDepartmentsService) PublicCategories(context.Context) ([]string, error) {
	return s.categories, s.err
}

func (s *stubDepartmentsService) PublicDepartments(context.Context) ([]departments.PublicDepartment, error) {
	out := make([]departments.PublicDepartment, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, departments.PublicDepartment{ID: row.ID, Name: row.Name})
	}
	return out, s.err
}

func TestDepartmentsListEmptyCarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	DepartmentsList(&stubDepartmentsService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/departments", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected an empty array, got %s", rec.Body.String())
	}
	var rows []departments.DepartmentDTO
	env := decodeSuccess(t, rec, &rows)
	if env.Message != "No departments found" || len(rows) != 0 {
		t.Fatalf("unexpected envelope %+v rows=%v", env, rows)
	}
}

func TestDepartmentCreateConflict(t *testing.T) {
	svc := &stubDepartmentsService{err: pkgerrors.New(pkgerrors.CodeConflict, "Department with this name already exists")}
	body := `{"name":"Parks","description":"Parks and trails","head":"` + uuid.NewString() + `"}`
	rec := httptest.NewRecorder()
	DepartmentCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/departments", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Error; msg != "Department with this name already exists" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDepartmentCreateRejectsUnknownCategory(t *testing.T) {
	body := `{"name":"Parks","description":"Parks and trails","head":"` + uuid.NewString() + `","categories":["Moon Base"]}`
	rec := httptest.NewRecorder()
	DepartmentCreate(&stubDepartmentsService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/departments", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDepartmentCategoriesUsesPathName(t *testing.T) {
	svc := &stubDepartmentsService{categories: []string{"Street Lighting"}}
	r := chi.NewRouter()
	r.Get("/api/departments/{name}/categories", DepartmentCategories(svc, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/departments/Public%20Works/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lookedUp != "Public Works" {
		t.Fatalf("expected decoded department name, got %q", svc.lookedUp)
	}
}

func TestPublicDepartments(t *testing.T) {
	id := uuid.New()
	svc := &stubDepartmentsService{rows: []departments.DepartmentDTO{{ID: id, Name: "Lighting"}}}
	rec := httptest.NewRecorder()
	PublicDepartments(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/departments", nil))

	var rows []departments.PublicDepartment
	decodeSuccess(t, rec, &rows)
	if len(rows) != 1 || rows[0].ID != id || rows[0].Name != "Lighting" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
