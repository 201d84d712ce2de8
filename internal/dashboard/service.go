package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/complaints"
	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

const recentLimit = 5

// PersonalStats summarise the complaints a citizen submitted or an admin
// was assigned. Exactly one of the rate fields is set.
type PersonalStats struct {
	TotalComplaints      int64  `json:"totalComplaints"`
	InProgressComplaints int64  `json:"inProgressComplaints"`
	ResolvedComplaints   int64  `json:"resolvedComplaints"`
	PendingComplaints    int64  `json:"pendingComplaints"`
	SuccessRate          *int64 `json:"successRate,omitempty"`
	ResolutionRate       *int64 `json:"resolutionRate,omitempty"`
}

// OverviewStats is the super-admin system summary.
type OverviewStats struct {
	TotalComplaints      int64                     `json:"totalComplaints"`
	TotalUsers           int64                     `json:"totalUsers"`
	TotalDepartments     int64                     `json:"totalDepartments"`
	ComplaintsByStatus   map[string]int64          `json:"complaintsByStatus"`
	ComplaintsByPriority map[string]int64          `json:"complaintsByPriority"`
	ComplaintsByCategory map[string]int64          `json:"complaintsByCategory"`
	RecentComplaints     []complaints.ComplaintDTO `json:"recentComplaints"`
}

// Service computes role-specific dashboard statistics.
type Service interface {
	// Stats returns *PersonalStats for citizens and admins and
	// *OverviewStats for super-admins.
	Stats(ctx context.Context, actor scope.Actor) (any, error)
}

type service struct {
	repo       *Repository
	complaints complaints.Service
}

// ServiceParams bundles the dependencies required to build a dashboard service.
type ServiceParams struct {
	DB         *gorm.DB
	Complaints complaints.Service
}

// NewService constructs a dashboard service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Complaints == nil {
		return nil, fmt.Errorf("complaints service is required")
	}
	return &service{repo: NewRepository(params.DB), complaints: params.Complaints}, nil
}

func (s *service) Stats(ctx context.Context, actor scope.Actor) (any, error) {
	switch actor.Role {
	case enums.RoleCitizen:
		stats, err := s.personal(ctx, "submitted_by", actor)
		if err != nil {
			return nil, err
		}
		rate := Percent(stats.ResolvedComplaints, stats.TotalComplaints)
		stats.SuccessRate = &rate
		return stats, nil
	case enums.RoleAdmin:
		stats, err := s.personal(ctx, "assigned_to", actor)
		if err != nil {
			return nil, err
		}
		rate := Percent(stats.ResolvedComplaints, stats.TotalComplaints)
		stats.ResolutionRate = &rate
		return stats, nil
	case enums.RoleSuperAdmin:
		return s.overview(ctx, actor)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden")
	}
}

func (s *service) personal(ctx context.Context, column string, actor scope.Actor) (*PersonalStats, error) {
	counts, err := s.repo.CountByStatusFor(ctx, column, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count complaints")
	}
	stats := &PersonalStats{
		InProgressComplaints: counts[string(enums.ComplaintStatusInProgress)],
		ResolvedComplaints:   counts[string(enums.ComplaintStatusResolved)],
		PendingComplaints:    counts[string(enums.ComplaintStatusSubmitted)],
	}
	for _, n := range counts {
		stats.TotalComplaints += n
	}
	return stats, nil
}

func (s *service) overview(ctx context.Context, actor scope.Actor) (*OverviewStats, error) {
	byStatus, statusErr := s.repo.CountBy(ctx, "status")
	byPriority, priorityErr := s.repo.CountBy(ctx, "priority")
	byCategory, categoryErr := s.repo.CountBy(ctx, "category")
	users, usersErr := s.repo.CountActiveUsers(ctx)
	departments, deptErr := s.repo.CountActiveDepartments(ctx)
	if err := multierr.Combine(statusErr, priorityErr, categoryErr, usersErr, deptErr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate complaints")
	}

	recent, _, err := s.complaints.List(ctx, actor, complaints.ListQuery{
		Page: pagination.Params{Page: 1, Limit: recentLimit},
	})
	if err != nil {
		return nil, err
	}

	for _, status := range enums.ComplaintStatuses() {
		if _, ok := byStatus[string(status)]; !ok {
			byStatus[string(status)] = 0
		}
	}

	stats := &OverviewStats{
		TotalUsers:           users,
		TotalDepartments:     departments,
		ComplaintsByStatus:   byStatus,
		ComplaintsByPriority: byPriority,
		ComplaintsByCategory: byCategory,
		RecentComplaints:     recent,
	}
	for _, n := range byStatus {
		stats.TotalComplaints += n
	}
	return stats, nil
}

// Percent returns part/total as a whole percentage, rounding half up. A
// zero total yields 0.
func Percent(part, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(0).
		IntPart()
}
