package departments

import (
	"time"

	"github.com/google/uuid"
)

// MemberRef is the public projection of a department head or member.
type MemberRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// DepartmentDTO is a department with its complaint statistics.
type DepartmentDTO struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Head               *MemberRef  `json:"head"`
	Members            []MemberRef `json:"members"`
	Categories         []string    `json:"categories"`
	IsActive           bool        `json:"isActive"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	TotalComplaints    int64       `json:"totalComplaints"`
	ResolvedComplaints int64       `json:"resolvedComplaints"`
	PendingComplaints  int64       `json:"pendingComplaints"`
}

// PublicDepartment is the catalog entry shown on the submission form.
type PublicDepartment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CreateDepartmentRequest is the super-admin payload for a new department.
type CreateDepartmentRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	Head        string   `json:"head" validate:"required,uuid"`
	Members     []string `json:"members" validate:"omitempty,dive,uuid"`
	Categories  []string `json:"categories" validate:"omitempty,dive,complaint_category"`
}

// Stats are complaint tallies for one department.
type Stats struct {
	Total    int64
	Resolved int64
	Pending  int64
}
