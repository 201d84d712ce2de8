package scope

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

// ErrDepartmentUnresolved is returned by resolvers when an admin has no
// department on record.
var ErrDepartmentUnresolved = errors.New("department unresolved")

// Actor is the verified caller a policy is computed for.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Department is the slice of a department record the engine needs.
type Department struct {
	ID         uuid.UUID
	Name       string
	Categories []string
}

// DepartmentResolver loads the department an admin belongs to.
type DepartmentResolver interface {
	DepartmentForUser(ctx context.Context, userID uuid.UUID) (*Department, error)
}

// Policy is the per-request authorization decision for one actor.
type Policy struct {
	Actor      Actor
	Capability Capability
	// Department is set for department-scoped roles.
	Department *Department
}

// Resolve computes the policy for actor. Department-scoped roles whose
// department cannot be loaded fail with NotFound rather than falling back
// to an unscoped view.
func Resolve(ctx context.Context, resolver DepartmentResolver, actor Actor) (*Policy, error) {
	capability := Capabilities(actor.Role)
	if capability.Read == ReadNone {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role has no complaint access")
	}

	policy := &Policy{Actor: actor, Capability: capability}
	if capability.Read != ReadDepartment {
		return policy, nil
	}

	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "department resolver not configured")
	}
	dept, err := resolver.DepartmentForUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrDepartmentUnresolved) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "department not found for admin")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin department")
	}
	if dept == nil || dept.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "department not found for admin")
	}
	policy.Department = dept
	return policy, nil
}

// ReadFilter returns the filter applied to list and get queries.
func (p *Policy) ReadFilter() Filter {
	return p.scopedFilter()
}

// TargetedUpdateFilter returns the filter for status/assignment/remark
// updates. Roles without the right get Forbidden.
func (p *Policy) TargetedUpdateFilter() (Filter, error) {
	if !p.Capability.TargetedUpdate {
		return Filter{}, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update complaints")
	}
	return p.scopedFilter(), nil
}

// EditFilter returns the filter for general edits: citizens reach only their
// own complaints, admins their department, super-admins everything.
func (p *Policy) EditFilter() Filter {
	return p.scopedFilter()
}

// CheckDelete fails with Forbidden unless the role may delete complaints.
func (p *Policy) CheckDelete() error {
	if !p.Capability.CanDelete {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only super admins can delete complaints")
	}
	return nil
}

// Allows reports whether the policy lets the actor set field f.
func (p *Policy) Allows(f Field) bool {
	return p.Capability.Allows(f)
}

func (p *Policy) scopedFilter() Filter {
	switch p.Capability.Read {
	case ReadOwn:
		id := p.Actor.UserID
		return Filter{SubmittedBy: &id}
	case ReadDepartment:
		if p.Department == nil {
			return Filter{deny: true}
		}
		name := p.Department.Name
		return Filter{Category: &name}
	case ReadAll:
		return Filter{}
	default:
		return Filter{deny: true}
	}
}
