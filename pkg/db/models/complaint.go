package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/pkg/enums"
)

// Complaint is a citizen-submitted civic issue.
type Complaint struct {
	ID             uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Title          string                `gorm:"column:title;not null"`
	Description    string                `gorm:"column:description;not null"`
	Category       string                `gorm:"column:category;not null;index"`
	Priority       enums.Priority        `gorm:"column:priority;type:text;not null;index:idx_complaints_status_priority,priority:2"`
	Status         enums.ComplaintStatus `gorm:"column:status;type:text;not null;index:idx_complaints_status_priority,priority:1"`
	Location       string                `gorm:"column:location;not null"`
	Latitude       *float64              `gorm:"column:latitude"`
	Longitude      *float64              `gorm:"column:longitude"`
	Images         []string              `gorm:"column:images;type:json;serializer:json;not null"`
	SubmittedBy    uuid.UUID             `gorm:"column:submitted_by;type:uuid;not null;index"`
	AssignedTo     *uuid.UUID            `gorm:"column:assigned_to;type:uuid;index"`
	Department     *string               `gorm:"column:department"`
	Resolution     *string               `gorm:"column:resolution"`
	ResolutionDate *time.Time            `gorm:"column:resolution_date"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Complaint) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = enums.ComplaintStatusSubmitted
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	return nil
}

// ComplaintRemark is one entry of a complaint's append-only remark log.
type ComplaintRemark struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ComplaintID uuid.UUID `gorm:"column:complaint_id;type:uuid;not null;index"`
	Body        string    `gorm:"column:body;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ComplaintRemark) TableName() string {
	return "complaint_remarks"
}
