// Package users exposes the user directory for administration: accounts plus
// the roles currently assigned to them. Role mutation is a command, not an
// endpoint here.
package users

import "time"

// User is one account as seen by an administrator.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
