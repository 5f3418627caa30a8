package enums

import "fmt"

// PetHealthStatus describes the condition of a listed pet.
type PetHealthStatus string

const (
	PetHealthStatusHealthy    PetHealthStatus = "Healthy"
	PetHealthStatusSick       PetHealthStatus = "Sick"
	PetHealthStatusInjured    PetHealthStatus = "Injured"
	PetHealthStatusRecovering PetHealthStatus = "Recovering"
)

var validPetHealthStatuses = []PetHealthStatus{
	PetHealthStatusHealthy,
	PetHealthStatusSick,
	PetHealthStatusInjured,
	PetHealthStatusRecovering,
}

// String implements fmt.Stringer.
func (p PetHealthStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PetHealthStatus.
func (p PetHealthStatus) IsValid() bool {
	for _, candidate := range validPetHealthStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePetHealthStatus converts raw input into a PetHealthStatus.
func ParsePetHealthStatus(value string) (PetHealthStatus, error) {
	for _, candidate := range validPetHealthStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet health status %q", value)
}
