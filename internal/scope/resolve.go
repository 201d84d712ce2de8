package scope

import (
	"sort"
	"strings"
)

// ComplaintRef is the part of a complaint used to pick its department.
type ComplaintRef struct {
	Category   string
	Department *string
}

// DepartmentIndex answers complaint-to-department lookups for a fixed
// department set.
type DepartmentIndex struct {
	byCategory map[string]string
	byFoldName map[string]string
}

// NewDepartmentIndex builds an index. When several departments claim a
// category, the one last in name order owns it.
func NewDepartmentIndex(departments []Department) *DepartmentIndex {
	sorted := append([]Department(nil), departments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	idx := &DepartmentIndex{
		byCategory: make(map[string]string),
		byFoldName: make(map[string]string),
	}
	for _, dept := range sorted {
		for _, category := range dept.Categories {
			idx.byCategory[category] = dept.Name
		}
		key := foldName(dept.Name)
		if _, seen := idx.byFoldName[key]; !seen {
			idx.byFoldName[key] = dept.Name
		}
	}
	return idx
}

// Resolve returns the department name a complaint belongs to, trying in
// order: the explicit department field, a department claiming the category,
// a department whose name matches the category ignoring case and surrounding space,
// and finally the raw category string.
func (idx *DepartmentIndex) Resolve(c ComplaintRef) string {
	if c.Department != nil {
		if explicit := strings.TrimSpace(*c.Department); explicit != "" {
			return explicit
		}
	}
	if name, ok := idx.byCategory[c.Category]; ok {
		return name
	}
	if name, ok := idx.byFoldName[foldName(c.Category)]; ok {
		return name
	}
	return c.Category
}

// ResolveDepartment is the one-shot form of DepartmentIndex.Resolve.
func ResolveDepartment(c ComplaintRef, departments []Department) string {
	return NewDepartmentIndex(departments).Resolve(c)
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
