package model

import "time"

// User represents a registered account.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Not exposed in API responses
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PublicProfile returns the fields of a user that are safe to embed in
// responses visible to other users.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":             u.ID,
		"username":       u.Username,
		"profilePicture": u.ProfilePicture,
	}
}
