package departments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civictrack/civictrack-backend/internal/repo"
	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
)

// Repository exposes department persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a departments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// ListActive returns active departments ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Department, error) {
	var rows []models.Department
	if err := r.DB(ctx).Where("is_active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByName matches an active department by name, ignoring case and
// surrounding whitespace.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	var dept models.Department
	err := r.DB(ctx).
		Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(name)), true).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindByID loads a department by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var dept models.Department
	if err := r.DB(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// Create inserts a department.
func (r *Repository) Create(ctx context.Context, dept *models.Department) error {
	return r.DB(ctx).Create(dept).Error
}

// AddMembers inserts membership links, ignoring ones that already exist.
func (r *Repository) AddMembers(ctx context.Context, departmentID uuid.UUID, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.DepartmentMember, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.DepartmentMember{DepartmentID: departmentID, UserID: id})
	}
	return r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Members returns the member projections of the given departments.
func (r *Repository) Members(ctx context.Context, departmentIDs []uuid.UUID) (map[uuid.UUID][]MemberRef, error) {
	out := make(map[uuid.UUID][]MemberRef, len(departmentIDs))
	if len(departmentIDs) == 0 {
		return out, nil
	}
	type memberRow struct {
		DepartmentID uuid.UUID
		ID           uuid.UUID
		Name         string
		Email        string
	}
	var rows []memberRow
	err := r.DB(ctx).
		Table("department_members AS dm").
		Select("dm.department_id AS department_id, u.id AS id, u.name AS name, u.email AS email").
		Joins("JOIN users u ON u.id = dm.user_id").
		Where("dm.department_id IN ?", departmentIDs).
		Order("u.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DepartmentID] = append(out[row.DepartmentID], MemberRef{ID: row.ID, Name: row.Name, Email: row.Email})
	}
	return out, nil
}

// Users loads the given users keyed by id.
func (r *Repository) Users(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// SetUserDepartment links a user to a department.
func (r *Repository) SetUserDepartment(ctx context.Context, userID, departmentID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("department_id", departmentID).Error
}

// ComplaintTally is the complaint count for one category/department/status combination.
type ComplaintTally struct {
	Category   string
	Department *string
	Status     enums.ComplaintStatus
	Count      int64
}

// ComplaintTallies groups every complaint by category, department override and status.
func (r *Repository) ComplaintTallies(ctx context.Context) ([]ComplaintTally, error) {
	var rows []ComplaintTally
	err := r.DB(ctx).
		Model(&models.Complaint{}).
		Select("category, department, status, COUNT(*) AS count").
		Group("category, department, status").
		Scan(&rows).Error
	return rows, err
}

// DepartmentForUser resolves the department of an admin from the user's own
// department link. Membership alone grants no scope.
func (r *Repository) DepartmentForUser(ctx context.Context, userID uuid.UUID) (*scope.Department, error) {
	var user models.User
	if err := r.DB(ctx).Select("id", "department_id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scope.ErrDepartmentUnresolved
		}
		return nil, err
	}
	if user.DepartmentID == nil {
		return nil, scope.ErrDepartmentUnresolved
	}

	var dept models.Department
	if err := r.DB(ctx).First(&dept, "id = ?", *user.DepartmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scope.ErrDepartmentUnresolved
		}
		return nil, err
	}
	return &scope.Department{ID: dept.ID, Name: dept.Name, Categories: dept.Categories}, nil
}
