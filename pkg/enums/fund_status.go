package enums

import "fmt"

// FundStatus tracks a donation through payment.
type FundStatus string

const (
	FundStatusPending  FundStatus = "pending"
	FundStatusApproved FundStatus = "approved"
	FundStatusRejected FundStatus = "rejected"
)

var validFundStatuses = []FundStatus{
	FundStatusPending,
	FundStatusApproved,
	FundStatusRejected,
}

// String implements fmt.Stringer.
func (f FundStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FundStatus.
func (f FundStatus) IsValid() bool {
	for _, candidate := range validFundStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFundStatus converts raw input into a FundStatus.
func ParseFundStatus(value string) (FundStatus, error) {
	for _, candidate := range validFundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fund status %q", value)
}

// IsTerminal reports whether no further transitions are allowed.
func (f FundStatus) IsTerminal() bool {
	return f == FundStatusApproved || f == FundStatusRejected
}

// CanTransitionTo enforces pending -> approved | rejected.
func (f FundStatus) CanTransitionTo(next FundStatus) bool {
	return f == FundStatusPending && next.IsTerminal()
}
