package models

import "time"

// Account is a Peck-In identity. Local accounts carry a password hash;
// federated accounts (OIDC) carry the issuer subject instead.
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	DisplayName  string    `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Subject      string    `bson:"subject,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserRef is the identity handed to clients.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (a *Account) Ref() UserRef {
	return UserRef{ID: a.ID, Email: a.Email}
}
