package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	Address     *string        `json:"address,omitempty"`
	PhoneNumber *string        `json:"phoneNumber,omitempty"`
	IsVerified  bool           `json:"isVerified"`
	FirstLogin  bool           `json:"firstLogin"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Role         enums.UserRole
	Address      *string
	PhoneNumber  *string
}

// UpdateInput changes profile fields; nil fields are left alone. Role is
// admin only.
type UpdateInput struct {
	Username    *string
	Address     *string
	PhoneNumber *string
	Role        *enums.UserRole
	Password    *string
}

type ListResult struct {
	Users []UserDTO       `json:"users"`
	Meta  pagination.Meta `json:"pagination"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		IsVerified:  u.IsVerified,
		FirstLogin:  u.FirstLogin,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		Address:      c.Address,
		PhoneNumber:  c.PhoneNumber,
		FirstLogin:   true,
	}
}
