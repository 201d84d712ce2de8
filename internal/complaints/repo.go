package complaints

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/repo"
	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
)

// Repository exposes complaint persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a complaints repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Create inserts a complaint.
func (r *Repository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.DB(ctx).Create(complaint).Error
}

// List returns one page of complaints matching the scope and filters, newest first.
func (r *Repository) List(ctx context.Context, filter scope.Filter, q ListQuery) ([]models.Complaint, int64, error) {
	scoped := func() *gorm.DB {
		return r.DB(ctx).Model(&models.Complaint{}).Scopes(filter.Apply, q.apply)
	}
	return repo.Page[models.Complaint](scoped, q.Page, "complaints.created_at DESC", "complaints.id DESC")
}

// FindScoped loads a complaint by id if it falls inside the filter.
func (r *Repository) FindScoped(ctx context.Context, id uuid.UUID, filter scope.Filter) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.DB(ctx).
		Scopes(filter.Apply).
		Where("complaints.id = ?", id).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// UpdateScoped applies column updates to the complaint matching id and the
// filter in one statement, returning the number of matched rows.
func (r *Repository) UpdateScoped(ctx context.Context, id uuid.UUID, filter scope.Filter, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Complaint{}).
		Scopes(filter.Apply).
		Where("complaints.id = ?", id).
		UpdateColumns(updates)
	return res.RowsAffected, res.Error
}

// AppendRemark adds an entry to the complaint's remark log.
func (r *Repository) AppendRemark(ctx context.Context, complaintID uuid.UUID, body string, at time.Time) error {
	return r.DB(ctx).Create(&models.ComplaintRemark{
		ComplaintID: complaintID,
		Body:        body,
		CreatedAt:   at,
	}).Error
}

// Remarks returns the remark logs for the given complaints in insertion order.
func (r *Repository) Remarks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ComplaintRemark
	if err := r.DB(ctx).Where("complaint_id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ComplaintID] = append(out[row.ComplaintID], row.Body)
	}
	return out, nil
}

// UserRefs loads the public projection for the given user ids.
func (r *Repository) UserRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserRef, error) {
	out := make(map[uuid.UUID]UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.DB(ctx).Select("id", "name", "email").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

// UserExists reports whether an active user with the id exists.
func (r *Repository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.User{}, "id = ? AND is_active = ?", id, true)
}

// Delete removes a complaint and its remark log.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := r.DB(ctx).Where("complaint_id = ?", id).Delete(&models.ComplaintRemark{}).Error; err != nil {
		return 0, err
	}
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Complaint{})
	return res.RowsAffected, res.Error
}

func (q ListQuery) apply(db *gorm.DB) *gorm.DB {
	if q.Status != "" {
		db = db.Where("complaints.status = ?", q.Status)
	}
	if q.Category != "" {
		db = db.Where("complaints.category = ?", q.Category)
	}
	if q.Priority != "" {
		db = db.Where("complaints.priority = ?", q.Priority)
	}
	return db
}

// jsonList stores a string slice in a JSON column from a column-map update.
type jsonList []string

func (l jsonList) Value() (driver.Value, error) {
	if l == nil {
		l = jsonList{}
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
