package model

import "time"

// APIKey authenticates a caller against the payments API and binds the key
// to the identity it acts as.
type APIKey struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Identity  string     `json:"identity"`
	KeyHash   string     `json:"-"`
	KeyPrefix string     `json:"key_prefix,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
