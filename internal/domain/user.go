package domain

import "time"

// User es la cuenta registrada. PasswordHash y el token de verificacion nunca se serializan.
type User struct {
	ID                         string     `json:"id"`
	Email                      string     `json:"email"`
	PasswordHash               string     `json:"-"`
	FirstName                  string     `json:"first_name"`
	LastName                   string     `json:"last_name"`
	Verified                   bool       `json:"verified"`
	VerificationToken          *string    `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`
	CreatedAt                  time.Time  `json:"account_created"`
	UpdatedAt                  time.Time  `json:"account_updated"`
}

// Public devuelve una copia sin material de credenciales.
func (u User) Public() User {
	u.PasswordHash = ""
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
	return u
}

// HasPendingVerification indica si el usuario tiene un token emitido sin consumir.
func (u User) HasPendingVerification() bool {
	return !u.Verified && u.VerificationToken != nil && u.VerificationTokenExpiresAt != nil
}
