package enums

import "fmt"

// PaymentEventOutcome records what a webhook delivery did.
type PaymentEventOutcome string

const (
	PaymentEventOutcomeApplied   PaymentEventOutcome = "applied"
	PaymentEventOutcomeReplayed  PaymentEventOutcome = "replayed"
	PaymentEventOutcomeIgnored   PaymentEventOutcome = "ignored"
	PaymentEventOutcomeUnmatched PaymentEventOutcome = "unmatched"
	PaymentEventOutcomeRejected  PaymentEventOutcome = "rejected"
)

var validPaymentEventOutcomes = []PaymentEventOutcome{
	PaymentEventOutcomeApplied,
	PaymentEventOutcomeReplayed,
	PaymentEventOutcomeIgnored,
	PaymentEventOutcomeUnmatched,
	PaymentEventOutcomeRejected,
}

// String implements fmt.Stringer.
func (p PaymentEventOutcome) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentEventOutcome.
func (p PaymentEventOutcome) IsValid() bool {
	for _, candidate := range validPaymentEventOutcomes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentEventOutcome converts raw input into a PaymentEventOutcome.
func ParsePaymentEventOutcome(value string) (PaymentEventOutcome, error) {
	for _, candidate := range validPaymentEventOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event outcome %q", value)
}
