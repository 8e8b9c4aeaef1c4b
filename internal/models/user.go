package models

import (
	"time"
)

// User is the persisted account record.
type User struct {
	ID               string    `bson:"_id" json:"id"`
	Email            string    `bson:"email" json:"email"`
	DisplayName      string    `bson:"display_name,omitempty" json:"displayName,omitempty"`
	CredentialDigest string    `bson:"credential_digest" json:"credentialDigest"`
	TOTPSecret       string    `bson:"totp_secret" json:"totpSecret"`
	IsLoggedIn       bool      `bson:"is_logged_in" json:"isLoggedIn"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
}

// PublicUser is the view of a User that may leave the service.
type PublicUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Public strips the credential digest and TOTP secret.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}
