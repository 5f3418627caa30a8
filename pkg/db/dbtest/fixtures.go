package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// MustCreateUser inserts a user with the given role.
func MustCreateUser(t *testing.T, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:           id,
		Username:     "user_" + id.String()[:8],
		Email:        fmt.Sprintf("ht_test_%s@example.com", id.String()),
		PasswordHash: "hash",
		Role:         role,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateMedia inserts a media row.
func MustCreateMedia(t *testing.T, conn *gorm.DB) *models.Media {
	t.Helper()
	id := uuid.New()
	media := &models.Media{
		ID:          id,
		ObjectKey:   "media/" + id.String() + ".png",
		Name:        "photo.png",
		URL:         "https://storage.googleapis.com/test/media/" + id.String() + ".png",
		ContentType: "image/png",
		SizeBytes:   128,
	}
	if err := conn.Create(media).Error; err != nil {
		t.Fatalf("create media: %v", err)
	}
	return media
}

// MustCreatePet inserts an available pet.
func MustCreatePet(t *testing.T, conn *gorm.DB, imageID uuid.UUID) *models.Pet {
	t.Helper()
	pet := &models.Pet{
		ID:           uuid.New(),
		Name:         "Milo",
		Description:  "Friendly tabby",
		Age:          2,
		Species:      "Cat",
		CoatColor:    "Orange",
		Sex:          enums.PetSexMale,
		Breed:        "Tabby",
		Vaccinated:   true,
		HealthStatus: enums.PetHealthStatusHealthy,
		ImageID:      imageID,
		Quantity:     1,
		Location:     "Ho Chi Minh City",
		Status:       enums.PetStatusAvailable,
	}
	if err := conn.Create(pet).Error; err != nil {
		t.Fatalf("create pet: %v", err)
	}
	return pet
}

// MustCreateProduct inserts a product with the given stock.
func MustCreateProduct(t *testing.T, conn *gorm.DB, imageID uuid.UUID, quantity int) *models.Product {
	t.Helper()
	id := uuid.New()
	product := &models.Product{
		ID:                id,
		Name:              "Salmon kibble",
		Price:             decimal.NewFromInt(120000),
		ImageID:           imageID,
		Category:          "food",
		Quantity:          quantity,
		Code:              "SKU-" + id.String()[:8],
		SupportPercentage: 5,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustCreateCartItem adds a product line to a user's cart.
func MustCreateCartItem(t *testing.T, conn *gorm.DB, userID, productID uuid.UUID, quantity int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("create cart item: %v", err)
	}
	return item
}
