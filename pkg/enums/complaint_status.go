package enums

import "fmt"

// ComplaintStatus tracks the lifecycle of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusSubmitted  ComplaintStatus = "submitted"
	ComplaintStatusInProgress ComplaintStatus = "in-progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusSubmitted,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusClosed,
}

// ComplaintStatuses returns every status in lifecycle order.
func ComplaintStatuses() []ComplaintStatus {
	return append([]ComplaintStatus(nil), validComplaintStatuses...)
}

// String implements fmt.Stringer.
func (s ComplaintStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ComplaintStatus.
func (s ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOpen is true for complaints still awaiting work.
func (s ComplaintStatus) IsOpen() bool {
	return s == ComplaintStatusSubmitted || s == ComplaintStatusInProgress
}

// IsClosedOut is true for resolved or closed complaints.
func (s ComplaintStatus) IsClosedOut() bool {
	return s == ComplaintStatusResolved || s == ComplaintStatusClosed
}

// ParseComplaintStatus converts raw input into a ComplaintStatus.
func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	for _, candidate := range validComplaintStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}
