package scope

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter restricts complaint queries. The zero value matches every complaint.
type Filter struct {
	SubmittedBy *uuid.UUID
	Category    *string
	deny        bool
}

// Unscoped reports whether the filter matches every complaint.
func (f Filter) Unscoped() bool {
	return !f.deny && f.SubmittedBy == nil && f.Category == nil
}

// Apply is a gorm scope adding the filter predicates to a complaints query.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.deny {
		return db.Where("1 = 0")
	}
	if f.SubmittedBy != nil {
		db = db.Where("complaints.submitted_by = ?", *f.SubmittedBy)
	}
	if f.Category != nil {
		db = db.Where("complaints.category = ?", *f.Category)
	}
	return db
}

// Matches evaluates the filter against an in-memory complaint.
func (f Filter) Matches(submittedBy uuid.UUID, category string) bool {
	if f.deny {
		return false
	}
	if f.SubmittedBy != nil && *f.SubmittedBy != submittedBy {
		return false
	}
	if f.Category != nil && *f.Category != category {
		return false
	}
	return true
}
