package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a signed-in Google account. The access token is the opaque bearer
// credential handed to the mail provider; it is never serialized to clients.
type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"google_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUser(googleID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New().String(),
		GoogleID:     googleID,
		Email:        email,
		Name:         name,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  tokenExpiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasValidToken reports whether the user carries an access token that has not
// expired. A zero expiry is treated as "unknown" and accepted.
func (u *User) HasValidToken(now time.Time) bool {
	if u.AccessToken == "" {
		return false
	}
	return u.TokenExpiry.IsZero() || now.Before(u.TokenExpiry)
}
