package pets

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// CreateInput describes a new pet listing.
type CreateInput struct {
	Name         string
	Description  string
	Age          int
	Species      string
	CoatColor    string
	Sex          enums.PetSex
	Breed        string
	Vaccinated   bool
	HealthStatus enums.PetHealthStatus
	ImageID      uuid.UUID
	Quantity     int
	Location     string
	Keywords     []string
}

// UpdateInput is a partial update; nil fields are left alone.
type UpdateInput struct {
	Name         *string
	Description  *string
	Age          *int
	Species      *string
	CoatColor    *string
	Sex          *enums.PetSex
	Breed        *string
	Vaccinated   *bool
	HealthStatus *enums.PetHealthStatus
	ImageID      *uuid.UUID
	Quantity     *int
	Location     *string
	Keywords     []string
	Status       *enums.PetStatus
}

// Filters narrow a pet listing.
type Filters struct {
	Search    string
	Species   string
	CoatColor string
	Sex       string
}

// Image is a resolved media reference.
type Image struct {
	ID  uuid.UUID `json:"id"`
	URL *string   `json:"url"`
}

// PetView is the API shape of a pet.
type PetView struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Age          int                   `json:"age"`
	Species      string                `json:"species"`
	CoatColor    string                `json:"coatColor"`
	Sex          enums.PetSex          `json:"sex"`
	Breed        string                `json:"breed"`
	Vaccinated   bool                  `json:"vaccinated"`
	HealthStatus enums.PetHealthStatus `json:"healthStatus"`
	Image        Image                 `json:"image"`
	Quantity     int                   `json:"quantity"`
	Location     string                `json:"location"`
	Keywords     []string              `json:"keywords"`
	Status       enums.PetStatus       `json:"status"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// ListResult is a page of pets.
type ListResult struct {
	Pets []PetView       `json:"pets"`
	Meta pagination.Meta `json:"meta"`
}

func toView(p models.Pet, urls map[uuid.UUID]string) PetView {
	image := Image{ID: p.ImageID}
	if url, ok := urls[p.ImageID]; ok {
		image.URL = &url
	}
	keywords := []string(p.Keywords)
	if keywords == nil {
		keywords = []string{}
	}
	return PetView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Age:          p.Age,
		Species:      p.Species,
		CoatColor:    p.CoatColor,
		Sex:          p.Sex,
		Breed:        p.Breed,
		Vaccinated:   p.Vaccinated,
		HealthStatus: p.HealthStatus,
		Image:        image,
		Quantity:     p.Quantity,
		Location:     p.Location,
		Keywords:     keywords,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
	}
}
