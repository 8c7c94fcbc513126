package model

import "time"

// AdminAccount is a console operator. Passwords are stored as bcrypt hashes.
type AdminAccount struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
