package enums

import "fmt"

// PetSex is the sex recorded on a pet listing.
type PetSex string

const (
	PetSexMale   PetSex = "Male"
	PetSexFemale PetSex = "Female"
)

var validPetSexes = []PetSex{
	PetSexMale,
	PetSexFemale,
}

// String implements fmt.Stringer.
func (p PetSex) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PetSex.
func (p PetSex) IsValid() bool {
	for _, candidate := range validPetSexes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePetSex converts raw input into a PetSex.
func ParsePetSex(value string) (PetSex, error) {
	for _, candidate := range validPetSexes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet sex %q", value)
}
