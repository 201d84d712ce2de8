package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
	"github.com/civictrack/civictrack-backend/pkg/types"
)

// remarkDateLayout renders the date prefix of a remark entry, e.g. 3/14/2025.
const remarkDateLayout = "1/2/2006"

const notFoundMessage = "complaint not found"

// Service defines the complaint operations used by the controllers.
type Service interface {
	List(ctx context.Context, actor scope.Actor, q ListQuery) ([]ComplaintDTO, types.Pagination, error)
	Create(ctx context.Context, actor scope.Actor, req CreateComplaintRequest) (*ComplaintDTO, error)
	Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*ComplaintDTO, error)
	Edit(ctx context.Context, actor scope.Actor, id uuid.UUID, req EditComplaintRequest) (*ComplaintDTO, error)
	TargetedUpdate(ctx context.Context, actor scope.Actor, req TargetedUpdateRequest) (*ComplaintDTO, error)
	Delete(ctx context.Context, actor scope.Actor, id uuid.UUID) error
}

type service struct {
	db          *gorm.DB
	repo        *Repository
	departments scope.DepartmentResolver
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build a complaints service.
type ServiceParams struct {
	DB          *gorm.DB
	Departments scope.DepartmentResolver
	Logger      *logger.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewService constructs a complaints service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Departments == nil {
		return nil, fmt.Errorf("department resolver is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:          params.DB,
		repo:        NewRepository(params.DB),
		departments: params.Departments,
		logg:        params.Logger,
		now:         clock,
	}, nil
}

func (s *service) policy(ctx context.Context, actor scope.Actor) (*scope.Policy, error) {
	return scope.Resolve(ctx, s.departments, actor)
}

func (s *service) List(ctx context.Context, actor scope.Actor, q ListQuery) ([]ComplaintDTO, types.Pagination, error) {
	policy, err := s.policy(ctx, actor)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	q.Page = pagination.Normalize(q.Page)

	rows, total, err := s.repo.List(ctx, policy.ReadFilter(), q)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list complaints")
	}
	dtos, err := s.hydrate(ctx, s.repo, rows)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return dtos, q.Page.Meta(total), nil
}

func (s *service) Create(ctx context.Context, actor scope.Actor, req CreateComplaintRequest) (*ComplaintDTO, error) {
	if !actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot submit complaints")
	}
	category, err := enums.ParseCategory(req.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "category must be a valid category")
	}
	priority := enums.PriorityMedium
	if req.Priority != "" {
		if priority, err = enums.ParsePriority(req.Priority); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "priority must be one of: low, medium, high, critical")
		}
	}
	if len(req.Images) > maxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "images must contain at most 5 items")
	}

	complaint := &models.Complaint{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    string(category),
		Priority:    priority,
		Status:      enums.ComplaintStatusSubmitted,
		Location:    strings.TrimSpace(req.Location),
		Images:      append([]string{}, req.Images...),
		SubmittedBy: actor.UserID,
	}
	if req.Coordinates != nil {
		lat, lng := req.Coordinates.Latitude, req.Coordinates.Longitude
		complaint.Latitude = &lat
		complaint.Longitude = &lng
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create complaint")
	}

	dtos, err := s.hydrate(ctx, s.repo, []models.Complaint{*complaint})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func (s *service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*ComplaintDTO, error) {
	policy, err := s.policy(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.repo, id, policy.ReadFilter())
}

func (s *service) Edit(ctx context.Context, actor scope.Actor, id uuid.UUID, req EditComplaintRequest) (*ComplaintDTO, error) {
	policy, err := s.policy(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter := policy.EditFilter()

	updates, err := s.editColumns(ctx, policy, req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.fetch(ctx, s.repo, id, filter)
	}
	updates["updated_at"] = s.now()

	matched, err := s.repo.UpdateScoped(ctx, id, filter, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update complaint")
	}
	if matched == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return s.fetch(ctx, s.repo, id, filter)
}

// editColumns keeps only the fields the policy allows, silently dropping the
// rest. Dropped fields are never validated.
func (s *service) editColumns(ctx context.Context, policy *scope.Policy, req EditComplaintRequest) (map[string]any, error) {
	updates := map[string]any{}
	var invalid fieldErrors
	set := func(field scope.Field, column string, value any) {
		if policy.Allows(field) {
			updates[column] = value
		}
	}

	if req.Title != nil {
		set(scope.FieldTitle, "title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		set(scope.FieldDescription, "description", strings.TrimSpace(*req.Description))
	}
	if req.Location != nil {
		set(scope.FieldLocation, "location", strings.TrimSpace(*req.Location))
	}
	if req.Coordinates != nil && policy.Allows(scope.FieldCoordinates) {
		updates["latitude"] = req.Coordinates.Latitude
		updates["longitude"] = req.Coordinates.Longitude
	}
	if req.Images != nil && policy.Allows(scope.FieldImages) {
		if len(*req.Images) > maxImages {
			invalid.add("images", fmt.Sprintf("must contain at most %d items", maxImages))
		} else {
			updates["images"] = jsonList(*req.Images)
		}
	}
	if req.Category != nil && policy.Allows(scope.FieldCategory) {
		if category, err := enums.ParseCategory(*req.Category); err != nil {
			invalid.add("category", "must be a valid category")
		} else {
			updates["category"] = string(category)
		}
	}
	if req.Priority != nil && policy.Allows(scope.FieldPriority) {
		if priority, err := enums.ParsePriority(*req.Priority); err != nil {
			invalid.add("priority", "must be one of: low, medium, high, critical")
		} else {
			updates["priority"] = priority
		}
	}

	staff := staffFields{
		Status:         req.Status,
		AssignedTo:     req.AssignedTo,
		Department:     req.Department,
		Resolution:     req.Resolution,
		ResolutionDate: req.ResolutionDate,
	}
	if err := s.staffColumns(ctx, policy, staff, updates, &invalid); err != nil {
		return nil, err
	}
	if err := invalid.result(); err != nil {
		return nil, err
	}
	return updates, nil
}

// staffFields are the status, assignment and resolution fields shared by
// general edits and targeted updates.
type staffFields struct {
	Status         *string
	AssignedTo     *string
	Department     *string
	Resolution     *string
	ResolutionDate *time.Time
}

// staffColumns validates the staff fields the policy admits and adds them to
// updates. Field problems go to invalid; only lookup failures are returned.
func (s *service) staffColumns(ctx context.Context, policy *scope.Policy, f staffFields, updates map[string]any, invalid *fieldErrors) error {
	if f.Status != nil && policy.Allows(scope.FieldStatus) {
		if status, err := enums.ParseComplaintStatus(*f.Status); err != nil {
			invalid.add("status", "must be one of: submitted, in-progress, resolved, closed")
		} else {
			updates["status"] = status
		}
	}
	if f.AssignedTo != nil && policy.Allows(scope.FieldAssignedTo) {
		id, err := uuid.Parse(strings.TrimSpace(*f.AssignedTo))
		if err != nil {
			invalid.add("assignedTo", "must be a valid id")
		} else {
			exists, err := s.repo.UserExists(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignee")
			}
			if exists {
				updates["assigned_to"] = id
			} else {
				invalid.add("assignedTo", "must reference an existing user")
			}
		}
	}
	if f.Department != nil && policy.Allows(scope.FieldDepartment) {
		department := strings.TrimSpace(*f.Department)
		if invalid.maxRunes("department", department, maxDepartmentLen) {
			updates["department"] = department
		}
	}
	if f.Resolution != nil && policy.Allows(scope.FieldResolution) {
		if invalid.maxRunes("resolution", *f.Resolution, maxTextLen) {
			updates["resolution"] = *f.Resolution
		}
	}
	if f.ResolutionDate != nil && policy.Allows(scope.FieldResolutionDate) {
		updates["resolution_date"] = *f.ResolutionDate
	}
	return nil
}

func (s *service) TargetedUpdate(ctx context.Context, actor scope.Actor, req TargetedUpdateRequest) (*ComplaintDTO, error) {
	var invalid fieldErrors
	id, err := uuid.Parse(strings.TrimSpace(req.ID))
	if err != nil {
		invalid.add("id", "must be a valid id")
	}
	var remark string
	if req.Remark != nil {
		remark = strings.TrimSpace(*req.Remark)
		if remark == "" {
			invalid.add("remark", "cannot be empty")
		} else {
			invalid.maxRunes("remark", remark, maxTextLen)
		}
	}

	policy, err := s.policy(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter, err := policy.TargetedUpdateFilter()
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	staff := staffFields{
		Status:         req.Status,
		AssignedTo:     req.AssignedTo,
		Department:     req.Department,
		Resolution:     req.Resolution,
		ResolutionDate: req.ResolutionDate,
	}
	if err := s.staffColumns(ctx, policy, staff, updates, &invalid); err != nil {
		return nil, err
	}
	if err := invalid.result(); err != nil {
		return nil, err
	}
	if len(updates) == 0 && remark == "" {
		return s.fetch(ctx, s.repo, id, filter)
	}

	now := s.now()
	updates["updated_at"] = now

	var result *ComplaintDTO
	err = db.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		matched, err := txRepo.UpdateScoped(ctx, id, filter, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update complaint")
		}
		if matched == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		if remark != "" {
			entry := now.Format(remarkDateLayout) + ": " + remark
			if err := txRepo.AppendRemark(ctx, id, entry, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append remark")
			}
		}
		result, err = s.fetch(ctx, txRepo, id, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.warnMissingDepartment(ctx, result)
	return result, nil
}

func (s *service) Delete(ctx context.Context, actor scope.Actor, id uuid.UUID) error {
	policy, err := s.policy(ctx, actor)
	if err != nil {
		return err
	}
	if err := policy.CheckDelete(); err != nil {
		return err
	}
	return db.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete complaint")
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil
	})
}

func (s *service) fetch(ctx context.Context, r *Repository, id uuid.UUID, filter scope.Filter) (*ComplaintDTO, error) {
	complaint, err := r.FindScoped(ctx, id, filter)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load complaint")
	}
	dtos, err := s.hydrate(ctx, r, []models.Complaint{*complaint})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// hydrate attaches remark logs and the submitter/assignee projections.
func (s *service) hydrate(ctx context.Context, r *Repository, rows []models.Complaint) ([]ComplaintDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	userSet := map[uuid.UUID]struct{}{}
	for _, c := range rows {
		ids = append(ids, c.ID)
		userSet[c.SubmittedBy] = struct{}{}
		if c.AssignedTo != nil {
			userSet[*c.AssignedTo] = struct{}{}
		}
	}
	userIDs := make([]uuid.UUID, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}

	remarks, err := r.Remarks(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load remarks")
	}
	users, err := r.UserRefs(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load complaint users")
	}

	out := make([]ComplaintDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, toDTO(c, remarks[c.ID], users))
	}
	return out, nil
}

// A complaint past "submitted" should name a department; this is reported
// rather than enforced.
func (s *service) warnMissingDepartment(ctx context.Context, c *ComplaintDTO) {
	if s.logg == nil || c == nil || c.Status == enums.ComplaintStatusSubmitted {
		return
	}
	if c.Department != nil && strings.TrimSpace(*c.Department) != "" {
		return
	}
	ctx = s.logg.WithComplaintID(ctx, c.ID.String())
	s.logg.Warn(ctx, "complaint.department_missing")
}
