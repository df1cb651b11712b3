package enums

import "fmt"

// PaymentSessionStatus tracks one checkout payment attempt from initiation
// to a terminal outcome. Completed, failed and cancelled are terminal; once
// one of them is recorded, later transitions are ignored.
type PaymentSessionStatus string

const (
	PaymentSessionInitiated            PaymentSessionStatus = "initiated"
	PaymentSessionAwaitingConfirmation PaymentSessionStatus = "awaiting_confirmation"
	PaymentSessionCompleted            PaymentSessionStatus = "completed"
	PaymentSessionFailed               PaymentSessionStatus = "failed"
	PaymentSessionCancelled            PaymentSessionStatus = "cancelled"
)

var validPaymentSessionStatuses = []PaymentSessionStatus{
	PaymentSessionInitiated,
	PaymentSessionAwaitingConfirmation,
	PaymentSessionCompleted,
	PaymentSessionFailed,
	PaymentSessionCancelled,
}

// String implements fmt.Stringer.
func (p PaymentSessionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentSessionStatus.
func (p PaymentSessionStatus) IsValid() bool {
	for _, candidate := range validPaymentSessionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (p PaymentSessionStatus) IsTerminal() bool {
	switch p {
	case PaymentSessionCompleted, PaymentSessionFailed, PaymentSessionCancelled:
		return true
	}
	return false
}

// ParsePaymentSessionStatus converts raw input into a PaymentSessionStatus.
func ParsePaymentSessionStatus(value string) (PaymentSessionStatus, error) {
	for _, candidate := range validPaymentSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment session status %q", value)
}
