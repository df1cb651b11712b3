package enums

import "fmt"

// ComplaintStatus tracks a customer complaint through resolution.
type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "open"
	ComplaintStatusReviewed ComplaintStatus = "reviewed"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusReviewed,
	ComplaintStatusResolved,
}

// String implements fmt.Stringer.
func (c ComplaintStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComplaintStatus.
func (c ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == c {
			return true
		}
	}
	return false
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
