package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
// Department carries the department name when the link resolves.
type UserDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         enums.Role `json:"role"`
	Department   *string    `json:"department,omitempty"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Address      *string    `json:"address,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.Role
	DepartmentID *uuid.UUID
	Phone        *string
	Address      *string
}

// CreateUserRequest is the super-admin payload for POST /api/users.
type CreateUserRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Role       string  `json:"role" validate:"required,role"`
	Department *string `json:"department" validate:"omitnil,uuid"`
	Phone      *string `json:"phone" validate:"omitnil,max=30"`
	Address    *string `json:"address" validate:"omitnil,max=200"`
}

// CreateAdminRequest is the payload for POST /api/admins. Department is
// matched by name.
type CreateAdminRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department" validate:"required"`
}

// UpdateMeRequest lists the profile fields a user may change. An empty
// phone or address clears it.
type UpdateMeRequest struct {
	Name    *string `json:"name" validate:"omitnil,min=1,max=100"`
	Phone   *string `json:"phone" validate:"omitnil,max=30"`
	Address *string `json:"address" validate:"omitnil,max=200"`
}

// ListQuery filters the active user list. Department accepts an id or a name.
type ListQuery struct {
	Role       string
	Department string
	Page       pagination.Params
}

// FromModel projects a user, rendering deptName as the department.
func FromModel(u *models.User, deptName *string) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Department:   deptName,
		DepartmentID: u.DepartmentID,
		Phone:        u.Phone,
		Address:      u.Address,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		DepartmentID: c.DepartmentID,
		Phone:        c.Phone,
		Address:      c.Address,
		IsActive:     true,
	}
}
