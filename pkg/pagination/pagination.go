package pagination

import "github.com/civictrack/civictrack-backend/pkg/types"

const (
	// DefaultPage is the first page.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize enforces the configured defaults and maximum limit.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	p = Normalize(p)
	return (p.Page - 1) * p.Limit
}

// Meta builds the response pagination block for a total row count.
func (p Params) Meta(total int64) types.Pagination {
	p = Normalize(p)
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return types.Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}
