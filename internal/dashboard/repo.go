package dashboard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/repo"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	repo.Base
}

// NewRepository constructs a dashboard repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type groupCount struct {
	Bucket string
	Count  int64
}

// CountByStatusFor groups the complaints whose column equals userID by status.
// column is one of submitted_by or assigned_to.
func (r *Repository) CountByStatusFor(ctx context.Context, column string, userID uuid.UUID) (map[string]int64, error) {
	return r.groupBy("status", r.DB(ctx).Where(column+" = ?", userID))
}

// CountBy groups every complaint by the given column.
func (r *Repository) CountBy(ctx context.Context, column string) (map[string]int64, error) {
	return r.groupBy(column, r.DB(ctx))
}

func (r *Repository) groupBy(column string, base *gorm.DB) (map[string]int64, error) {
	var rows []groupCount
	err := base.
		Model(&models.Complaint{}).
		Select(column + " AS bucket, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] = row.Count
	}
	return out, nil
}

// CountActiveUsers counts users that can still sign in.
func (r *Repository) CountActiveUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

// CountActiveDepartments counts active departments.
func (r *Repository) CountActiveDepartments(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Department{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}
