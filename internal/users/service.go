package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/departments"
	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
	"github.com/civictrack/civictrack-backend/pkg/security"
	"github.com/civictrack/civictrack-backend/pkg/types"
)

const (
	userNotFoundMessage  = "User not found"
	emailConflictMessage = "User already exists with this email"
)

// Service covers profile management and super-admin user administration.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateMeRequest) (*UserDTO, error)
	List(ctx context.Context, q ListQuery) ([]UserDTO, types.Pagination, error)
	Create(ctx context.Context, req CreateUserRequest) (*UserDTO, error)
	CreateAdmin(ctx context.Context, req CreateAdminRequest) (*UserDTO, error)
}

type service struct {
	db          *gorm.DB
	repo        *Repository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	DB             *gorm.DB
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs a users service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &service{
		db:          params.DB,
		repo:        NewRepository(params.DB),
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return s.project(ctx, s.repo, user)
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateMeRequest) (*UserDTO, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = nullable(*req.Phone)
	}
	if req.Address != nil {
		updates["address"] = nullable(*req.Address)
	}
	if len(updates) > 0 {
		matched, err := s.repo.UpdateProfile(ctx, userID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		if matched == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
		}
	}
	return s.Me(ctx, userID)
}

func (s *service) List(ctx context.Context, q ListQuery) ([]UserDTO, types.Pagination, error) {
	page := pagination.Normalize(q.Page)

	var role *enums.Role
	if value := strings.TrimSpace(q.Role); value != "" {
		parsed, err := enums.ParseRole(value)
		if err != nil {
			return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "role must be one of: citizen, admin, super-admin")
		}
		role = &parsed
	}
	var departmentID *uuid.UUID
	if value := strings.TrimSpace(q.Department); value != "" {
		id, err := s.departmentFilter(ctx, value)
		if err != nil {
			return nil, types.Pagination{}, err
		}
		if id == nil {
			return []UserDTO{}, page.Meta(0), nil
		}
		departmentID = id
	}

	rows, total, err := s.repo.List(ctx, role, departmentID, page)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	dtos, err := s.projectAll(ctx, s.repo, rows)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return dtos, page.Meta(total), nil
}

// departmentFilter accepts a department id or name. A name that matches no
// department yields nil so the listing comes back empty.
func (s *service) departmentFilter(ctx context.Context, value string) (*uuid.UUID, error) {
	if id, err := uuid.Parse(value); err == nil {
		return &id, nil
	}
	dept, err := departments.NewRepository(s.db).FindByName(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
	}
	return &dept.ID, nil
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	role, err := enums.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "role must be one of: citizen, admin, super-admin")
	}
	var departmentID *uuid.UUID
	if role == enums.RoleAdmin {
		if req.Department == nil || strings.TrimSpace(*req.Department) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "department is required for admin users")
		}
		id, err := uuid.Parse(strings.TrimSpace(*req.Department))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "department must be a valid id")
		}
		departmentID = &id
	}

	return s.insert(ctx, CreateUserDTO{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         role,
		DepartmentID: departmentID,
		Phone:        trimmedOrNil(req.Phone),
		Address:      trimmedOrNil(req.Address),
	}, req.Password, func(ctx context.Context, deptRepo *departments.Repository) (*models.Department, error) {
		if departmentID == nil {
			return nil, nil
		}
		dept, err := deptRepo.FindByID(ctx, *departmentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Department not found")
		}
		return dept, err
	})
}

func (s *service) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*UserDTO, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	deptName := strings.TrimSpace(req.Department)
	if name == "" || email == "" || req.Password == "" || deptName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Name, email, password, and department are required")
	}
	return s.insert(ctx, CreateUserDTO{
		Name:  name,
		Email: email,
		Role:  enums.RoleAdmin,
	}, req.Password, func(ctx context.Context, deptRepo *departments.Repository) (*models.Department, error) {
		dept, err := deptRepo.FindByName(ctx, deptName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Department not found")
		}
		return dept, err
	})
}

type departmentLookup func(ctx context.Context, deptRepo *departments.Repository) (*models.Department, error)

// insert creates the user and, when lookup yields a department, links and
// enrols the user in it within a single transaction.
func (s *service) insert(ctx context.Context, dto CreateUserDTO, password string, lookup departmentLookup) (*UserDTO, error) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "password is required")
	}
	dto.PasswordHash = hash

	var out *UserDTO
	err = db.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		userRepo := s.repo.WithTx(tx)
		deptRepo := departments.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, dto.Email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, emailConflictMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		dept, err := lookup(ctx, deptRepo)
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
		}
		if dept != nil {
			dto.DepartmentID = &dept.ID
		}

		user, err := userRepo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, emailConflictMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		var deptName *string
		if dept != nil {
			if err := deptRepo.AddMembers(ctx, dept.ID, user.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add department member")
			}
			deptName = &dept.Name
		}
		out = FromModel(user, deptName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, out.ID.String())
		s.logg.Info(s.logg.WithActorRole(logCtx, string(out.Role)), "user.created")
	}
	return out, nil
}

func (s *service) project(ctx context.Context, r *Repository, user *models.User) (*UserDTO, error) {
	dtos, err := s.projectAll(ctx, r, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func (s *service) projectAll(ctx context.Context, r *Repository, rows []models.User) ([]UserDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, u := range rows {
		if u.DepartmentID != nil {
			ids = append(ids, *u.DepartmentID)
		}
	}
	names, err := r.DepartmentNames(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department names")
	}

	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		var deptName *string
		if rows[i].DepartmentID != nil {
			if name, ok := names[*rows[i].DepartmentID]; ok {
				deptName = &name
			}
		}
		out = append(out, *FromModel(&rows[i], deptName))
	}
	return out, nil
}

func nullable(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	return nullable(*value)
}
