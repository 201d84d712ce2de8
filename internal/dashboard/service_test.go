package dashboard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/complaints"
	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/internal/testdb"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

type noDepartments struct{}

func (noDepartments) DepartmentForUser(context.Context, uuid.UUID) (*scope.Department, error) {
	return nil, scope.ErrDepartmentUnresolved
}

func newService(t *testing.T) (*gorm.DB, Service) {
	t.Helper()
	conn := testdb.Open(t)
	complaintsSvc, err := complaints.NewService(complaints.ServiceParams{DB: conn, Departments: noDepartments{}})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{DB: conn, Complaints: complaintsSvc})
	require.NoError(t, err)
	return conn, svc
}

func seed(t *testing.T, conn *gorm.DB, submitter uuid.UUID, assignee *uuid.UUID, status enums.ComplaintStatus, priority enums.Priority) {
	t.Helper()
	c := models.Complaint{
		Title:       "Pothole",
		Description: "A pothole big enough to lose a bike in.",
		Category:    string(enums.CategoryPublicWorks),
		Priority:    priority,
		Status:      status,
		Location:    "Main Street",
		SubmittedBy: submitter,
		AssignedTo:  assignee,
	}
	require.NoError(t, conn.Create(&c).Error)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(0), Percent(0, 0))
	assert.Equal(t, int64(33), Percent(1, 3))
	assert.Equal(t, int64(67), Percent(2, 3))
	assert.Equal(t, int64(50), Percent(1, 2))
	assert.Equal(t, int64(100), Percent(4, 4))
}

func TestCitizenAndAdminStats(t *testing.T) {
	conn, svc := newService(t)
	citizen := uuid.New()
	admin := uuid.New()

	seed(t, conn, citizen, &admin, enums.ComplaintStatusResolved, enums.PriorityHigh)
	seed(t, conn, citizen, &admin, enums.ComplaintStatusInProgress, enums.PriorityLow)
	seed(t, conn, citizen, nil, enums.ComplaintStatusSubmitted, enums.PriorityLow)
	seed(t, conn, uuid.New(), nil, enums.ComplaintStatusSubmitted, enums.PriorityLow)

	raw, err := svc.Stats(context.Background(), scope.Actor{UserID: citizen, Role: enums.RoleCitizen})
	require.NoError(t, err)
	stats, ok := raw.(*PersonalStats)
	require.True(t, ok)
	assert.Equal(t, int64(3), stats.TotalComplaints)
	assert.Equal(t, int64(1), stats.ResolvedComplaints)
	assert.Equal(t, int64(1), stats.InProgressComplaints)
	assert.Equal(t, int64(1), stats.PendingComplaints)
	require.NotNil(t, stats.SuccessRate)
	assert.Equal(t, int64(33), *stats.SuccessRate)
	assert.Nil(t, stats.ResolutionRate)

	raw, err = svc.Stats(context.Background(), scope.Actor{UserID: admin, Role: enums.RoleAdmin})
	require.NoError(t, err)
	stats = raw.(*PersonalStats)
	assert.Equal(t, int64(2), stats.TotalComplaints)
	require.NotNil(t, stats.ResolutionRate)
	assert.Equal(t, int64(50), *stats.ResolutionRate)
}

func TestOverviewStats(t *testing.T) {
	conn, svc := newService(t)
	submitter := models.User{Name: "Sam", Email: "sam@example.com", PasswordHash: "x", Role: enums.RoleCitizen, IsActive: true}
	require.NoError(t, conn.Create(&submitter).Error)
	for i := 0; i < 6; i++ {
		seed(t, conn, submitter.ID, nil, enums.ComplaintStatusSubmitted, enums.PriorityMedium)
	}
	seed(t, conn, submitter.ID, nil, enums.ComplaintStatusClosed, enums.PriorityCritical)

	raw, err := svc.Stats(context.Background(), scope.Actor{UserID: uuid.New(), Role: enums.RoleSuperAdmin})
	require.NoError(t, err)
	stats, ok := raw.(*OverviewStats)
	require.True(t, ok)
	assert.Equal(t, int64(7), stats.TotalComplaints)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Zero(t, stats.TotalDepartments)
	assert.Equal(t, int64(6), stats.ComplaintsByStatus["submitted"])
	assert.Contains(t, stats.ComplaintsByStatus, "in-progress")
	assert.Len(t, stats.ComplaintsByStatus, 4)
	assert.Equal(t, int64(1), stats.ComplaintsByPriority["critical"])
	assert.Equal(t, int64(7), stats.ComplaintsByCategory[string(enums.CategoryPublicWorks)])
	require.Len(t, stats.RecentComplaints, recentLimit)
	require.NotNil(t, stats.RecentComplaints[0].SubmittedBy)
	assert.Equal(t, "sam@example.com", stats.RecentComplaints[0].SubmittedBy.Email)
}

func TestStatsRejectsUnknownRole(t *testing.T) {
	_, svc := newService(t)
	_, err := svc.Stats(context.Background(), scope.Actor{UserID: uuid.New(), Role: "mayor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
