package entities

import "time"

// User is an account that owns data sources and mappings
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Identity is the verified caller identity used to scope ownership
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Identity returns the public identity of the user
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}
