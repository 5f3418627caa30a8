package enums

import "fmt"

// InvoiceStatus tracks a purchase invoice through payment.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "Pending"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPending,
	InvoiceStatusPaid,
	InvoiceStatusCancelled,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}

// IsTerminal reports whether no further transitions are allowed.
func (i InvoiceStatus) IsTerminal() bool {
	return i == InvoiceStatusPaid || i == InvoiceStatusCancelled
}

// CanTransitionTo enforces Pending -> Paid | Cancelled.
func (i InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return i == InvoiceStatusPending && next.IsTerminal()
}
