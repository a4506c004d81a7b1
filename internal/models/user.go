package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
