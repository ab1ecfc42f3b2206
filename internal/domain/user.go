package domain

import "github.com/google/uuid"

// User is the read-only profile owned by the auth provider.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}
