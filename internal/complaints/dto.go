package complaints

import (
	"time"

	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

// UserRef is the public projection of a user referenced by a complaint.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Coordinates is an optional geo point attached to a complaint.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// ComplaintDTO is the API representation of a complaint.
type ComplaintDTO struct {
	ID             uuid.UUID             `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	Priority       enums.Priority        `json:"priority"`
	Status         enums.ComplaintStatus `json:"status"`
	Location       string                `json:"location"`
	Coordinates    *Coordinates          `json:"coordinates,omitempty"`
	Images         []string              `json:"images"`
	Remarks        []string              `json:"remarks"`
	SubmittedBy    *UserRef              `json:"submittedBy"`
	AssignedTo     *UserRef              `json:"assignedTo"`
	Department     *string               `json:"department,omitempty"`
	Resolution     *string               `json:"resolution,omitempty"`
	ResolutionDate *time.Time            `json:"resolutionDate,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// CreateComplaintRequest is the citizen submission payload.
type CreateComplaintRequest struct {
	Title       string       `json:"title" validate:"required,min=5,max=100"`
	Description string       `json:"description" validate:"required,min=20,max=1000"`
	Category    string       `json:"category" validate:"required,complaint_category"`
	Priority    string       `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Location    string       `json:"location" validate:"required,min=5,max=200"`
	Coordinates *Coordinates `json:"coordinates"`
	Images      []string     `json:"images" validate:"max=5,dive,url"`
}

// EditComplaintRequest is the general edit payload. Fields outside the
// caller's allow-list are ignored. Only the citizen-editable fields carry
// tags; the staff fields are checked by the service once the policy admits
// them.
type EditComplaintRequest struct {
	Title          *string      `json:"title" validate:"omitnil,min=5,max=100"`
	Description    *string      `json:"description" validate:"omitnil,min=20,max=1000"`
	Location       *string      `json:"location" validate:"omitnil,min=5,max=200"`
	Coordinates    *Coordinates `json:"coordinates"`
	Images         *[]string    `json:"images" validate:"omitnil,max=5,dive,url"`
	Category       *string      `json:"category"`
	Priority       *string      `json:"priority"`
	Status         *string      `json:"status"`
	AssignedTo     *string      `json:"assignedTo"`
	Department     *string      `json:"department"`
	Resolution     *string      `json:"resolution"`
	ResolutionDate *time.Time   `json:"resolutionDate"`
}

// TargetedUpdateRequest is the staff update: scalar fields plus an optional
// remark appended to the log.
type TargetedUpdateRequest struct {
	ID             string     `json:"id" validate:"required,uuid"`
	Status         *string    `json:"status" validate:"omitnil,oneof=submitted in-progress resolved closed"`
	AssignedTo     *string    `json:"assignedTo" validate:"omitnil,uuid"`
	Department     *string    `json:"department" validate:"omitnil,max=100"`
	Resolution     *string    `json:"resolution" validate:"omitnil,max=500"`
	ResolutionDate *time.Time `json:"resolutionDate"`
	Remark         *string    `json:"remark" validate:"omitnil,min=1,max=500"`
}

// ListQuery narrows a complaint listing. Filters combine with the caller's
// scope; they never widen it.
type ListQuery struct {
	Status   string
	Category string
	Priority string
	Page     pagination.Params
}

func toDTO(c models.Complaint, remarks []string, users map[uuid.UUID]UserRef) ComplaintDTO {
	dto := ComplaintDTO{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Category:       c.Category,
		Priority:       c.Priority,
		Status:         c.Status,
		Location:       c.Location,
		Images:         c.Images,
		Remarks:        remarks,
		Department:     c.Department,
		Resolution:     c.Resolution,
		ResolutionDate: c.ResolutionDate,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	if dto.Remarks == nil {
		dto.Remarks = []string{}
	}
	if c.Latitude != nil && c.Longitude != nil {
		dto.Coordinates = &Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
	}
	if ref, ok := users[c.SubmittedBy]; ok {
		dto.SubmittedBy = &ref
	} else {
		dto.SubmittedBy = &UserRef{ID: c.SubmittedBy}
	}
	if c.AssignedTo != nil {
		if ref, ok := users[*c.AssignedTo]; ok {
			dto.AssignedTo = &ref
		} else {
			dto.AssignedTo = &UserRef{ID: *c.AssignedTo}
		}
	}
	return dto
}
