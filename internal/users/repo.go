package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/repo"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmailAndRole retrieves an active user holding the given role.
func (r *Repository) FindActiveByEmailAndRole(ctx context.Context, email string, role enums.Role) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("email = ? AND role = ? AND is_active = ?", email, role, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsActive reports whether the user exists and may still sign in.
func (r *Repository) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.User{}, "id = ? AND is_active = ?", id, true)
}

// List returns active users matching the filters, newest first.
func (r *Repository) List(ctx context.Context, role *enums.Role, departmentID *uuid.UUID, page pagination.Params) ([]models.User, int64, error) {
	scoped := func() *gorm.DB {
		q := r.DB(ctx).Model(&models.User{}).Where("is_active = ?", true)
		if role != nil {
			q = q.Where("role = ?", *role)
		}
		if departmentID != nil {
			q = q.Where("department_id = ?", *departmentID)
		}
		return q
	}
	return repo.Page[models.User](scoped, page, "created_at DESC", "id DESC")
}

// DepartmentNames maps department ids to names.
func (r *Repository) DepartmentNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Department
	if err := r.DB(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, d := range rows {
		out[d.ID] = d.Name
	}
	return out, nil
}

// UpdateProfile applies the given column updates to a user.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(updates)
	return res.RowsAffected, res.Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePasswordHash replaces a stored hash, used when upgrading legacy hashes.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}
