package departments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/internal/scope"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/db/models"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute

	publicCategoriesKey = "public:categories"
)

// Service defines department administration and the public catalog.
type Service interface {
	scope.DepartmentResolver
	List(ctx context.Context) ([]DepartmentDTO, error)
	Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentDTO, error)
	Categories(ctx context.Context, name string) ([]string, error)
	PublicCategories(ctx context.Context) ([]string, error)
	PublicDepartments(ctx context.Context) ([]PublicDepartment, error)
}

type service struct {
	db    *gorm.DB
	repo  *Repository
	logg  *logger.Logger
	cache *expirable.LRU[string, []string]
}

// ServiceParams bundles the dependencies required to build a departments service.
type ServiceParams struct {
	DB        *gorm.DB
	Logger    *logger.Logger
	CacheSize int
	CacheTTL  time.Duration
}

// NewService constructs a departments service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	size := params.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		db:    params.DB,
		repo:  NewRepository(params.DB),
		logg:  params.Logger,
		cache: expirable.NewLRU[string, []string](size, nil, ttl),
	}, nil
}

func (s *service) DepartmentForUser(ctx context.Context, userID uuid.UUID) (*scope.Department, error) {
	return s.repo.DepartmentForUser(ctx, userID)
}

func (s *service) List(ctx context.Context) ([]DepartmentDTO, error) {
	depts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list departments")
	}
	if len(depts) == 0 {
		return []DepartmentDTO{}, nil
	}

	ids := make([]uuid.UUID, 0, len(depts))
	headIDs := make([]uuid.UUID, 0, len(depts))
	for _, d := range depts {
		ids = append(ids, d.ID)
		headIDs = append(headIDs, d.HeadID)
	}
	members, memberErr := s.repo.Members(ctx, ids)
	heads, headErr := s.repo.Users(ctx, headIDs)
	tallies, tallyErr := s.repo.ComplaintTallies(ctx)
	if err := multierr.Combine(memberErr, headErr, tallyErr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department details")
	}

	stats := tallyByDepartment(depts, tallies)
	out := make([]DepartmentDTO, 0, len(depts))
	for _, d := range depts {
		dto := DepartmentDTO{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Members:     members[d.ID],
			Categories:  append([]string{}, d.Categories...),
			IsActive:    d.IsActive,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		}
		if dto.Members == nil {
			dto.Members = []MemberRef{}
		}
		if head, ok := heads[d.HeadID]; ok {
			dto.Head = &MemberRef{ID: head.ID, Name: head.Name, Email: head.Email}
		}
		st := stats[d.Name]
		dto.TotalComplaints = st.Total
		dto.ResolvedComplaints = st.Resolved
		dto.PendingComplaints = st.Pending
		out = append(out, dto)
	}
	return out, nil
}

// tallyByDepartment attributes complaint counts to departments through the
// resolver chain. Complaints resolving to no known department are ignored.
func tallyByDepartment(depts []models.Department, tallies []ComplaintTally) map[string]Stats {
	refs := make([]scope.Department, 0, len(depts))
	known := make(map[string]struct{}, len(depts))
	for _, d := range depts {
		refs = append(refs, scope.Department{ID: d.ID, Name: d.Name, Categories: d.Categories})
		known[d.Name] = struct{}{}
	}
	index := scope.NewDepartmentIndex(refs)

	out := make(map[string]Stats, len(depts))
	for _, t := range tallies {
		name := index.Resolve(scope.ComplaintRef{Category: t.Category, Department: t.Department})
		if _, ok := known[name]; !ok {
			continue
		}
		st := out[name]
		st.Total += t.Count
		switch {
		case t.Status.IsClosedOut():
			st.Resolved += t.Count
		case t.Status.IsOpen():
			st.Pending += t.Count
		}
		out[name] = st
	}
	return out
}

func (s *service) Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentDTO, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" || strings.TrimSpace(req.Head) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Name, description, and head are required")
	}
	headID, err := uuid.Parse(strings.TrimSpace(req.Head))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "head must be a valid id")
	}
	memberIDs, err := parseIDs(req.Members)
	if err != nil {
		return nil, err
	}
	categories, err := normalizeCategories(req.Categories)
	if err != nil {
		return nil, err
	}

	dept := &models.Department{
		Name:        name,
		Description: description,
		HeadID:      headID,
		Categories:  categories,
		IsActive:    true,
	}
	var dto *DepartmentDTO
	err = db.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByName(ctx, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "Department with this name already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check department name")
		}

		users, err := txRepo.Users(ctx, append([]uuid.UUID{headID}, memberIDs...))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department users")
		}
		head, ok := users[headID]
		if !ok || head.Role != enums.RoleAdmin {
			return pkgerrors.New(pkgerrors.CodeValidation, "Head must be an admin user")
		}
		members := make([]MemberRef, 0, len(memberIDs))
		for _, id := range memberIDs {
			u, ok := users[id]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "members must reference existing users")
			}
			members = append(members, MemberRef{ID: u.ID, Name: u.Name, Email: u.Email})
		}

		if err := txRepo.Create(ctx, dept); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "Department with this name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create department")
		}
		if err := txRepo.SetUserDepartment(ctx, headID, dept.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link department head")
		}
		if err := txRepo.AddMembers(ctx, dept.ID, memberIDs...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add department members")
		}

		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		dto = &DepartmentDTO{
			ID:          dept.ID,
			Name:        dept.Name,
			Description: dept.Description,
			Head:        &MemberRef{ID: head.ID, Name: head.Name, Email: head.Email},
			Members:     members,
			Categories:  append([]string{}, dept.Categories...),
			IsActive:    dept.IsActive,
			CreatedAt:   dept.CreatedAt,
			UpdatedAt:   dept.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Purge()
	if s.logg != nil {
		s.logg.Info(s.logg.WithDepartmentID(ctx, dept.ID.String()), "department.created")
	}
	return dto, nil
}

func (s *service) Categories(ctx context.Context, name string) ([]string, error) {
	key := "department:" + strings.ToLower(strings.TrimSpace(name))
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	dept, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "department not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
	}
	categories := append([]string{}, dept.Categories...)
	sort.Strings(categories)
	s.cache.Add(key, categories)
	return categories, nil
}

func (s *service) PublicCategories(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(publicCategoriesKey); ok {
		return cached, nil
	}
	depts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list departments")
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, d := range depts {
		for _, c := range d.Categories {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = enums.CategoryNames()
	} else {
		sort.Strings(out)
	}
	s.cache.Add(publicCategoriesKey, out)
	return out, nil
}

func (s *service) PublicDepartments(ctx context.Context) ([]PublicDepartment, error) {
	depts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list departments")
	}
	out := make([]PublicDepartment, 0, len(depts))
	for _, d := range depts {
		out = append(out, PublicDepartment{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "members must be valid ids")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func normalizeCategories(raw []string) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		category, err := enums.ParseCategory(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "categories must be valid categories")
		}
		if _, dup := seen[string(category)]; dup {
			continue
		}
		seen[string(category)] = struct{}{}
		out = append(out, string(category))
	}
	return out, nil
}
