// Package users manages the internal accounts and their credentials.
package users

import (
	"time"

	"github.com/Africamobilier/erp/internal/rbac"
	"github.com/Africamobilier/erp/internal/shared"
)

// Utilisateur is an internal account. The password hash never leaves the
// package through JSON.
type Utilisateur struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Nom          string    `json:"nom" db:"nom"`
	Prenom       string    `json:"prenom" db:"prenom"`
	Role         rbac.Role `json:"role" db:"role"`
	Actif        bool      `json:"actif" db:"actif"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Profile projects the account into the shape carried in request context.
func (u Utilisateur) Profile() shared.Profile {
	return shared.Profile{
		UserID: u.ID,
		Email:  u.Email,
		Nom:    u.Nom,
		Prenom: u.Prenom,
		Role:   string(u.Role),
		Actif:  u.Actif,
	}
}
