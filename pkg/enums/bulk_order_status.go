package enums

import "fmt"

// BulkOrderStatus tracks catering requests through vendor review.
type BulkOrderStatus string

const (
	BulkOrderStatusRequested BulkOrderStatus = "requested"
	BulkOrderStatusAccepted  BulkOrderStatus = "accepted"
	BulkOrderStatusRejected  BulkOrderStatus = "rejected"
	BulkOrderStatusFulfilled BulkOrderStatus = "fulfilled"
)

var validBulkOrderStatuses = []BulkOrderStatus{
	BulkOrderStatusRequested,
	BulkOrderStatusAccepted,
	BulkOrderStatusRejected,
	BulkOrderStatusFulfilled,
}

// String implements fmt.Stringer.
func (b BulkOrderStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BulkOrderStatus.
func (b BulkOrderStatus) IsValid() bool {
	for _, candidate := range validBulkOrderStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBulkOrderStatus converts raw input into a BulkOrderStatus.
func ParseBulkOrderStatus(value string) (BulkOrderStatus, error) {
	for _, candidate := range validBulkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk order status %q", value)
}
