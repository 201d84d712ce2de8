package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department owns a set of complaint categories and is led by an admin.
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null"`
	HeadID      uuid.UUID `gorm:"column:head_id;type:uuid;not null"`
	Categories  []string  `gorm:"column:categories;type:json;serializer:json;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Department) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Categories == nil {
		d.Categories = []string{}
	}
	return nil
}

// DepartmentMember links a user into a department's member set.
type DepartmentMember struct {
	DepartmentID uuid.UUID `gorm:"column:department_id;type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DepartmentMember) TableName() string {
	return "department_members"
}
