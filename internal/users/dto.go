package users

type CreateUtilisateurRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nom      string `json:"nom" validate:"required,max=100"`
	Prenom   string `json:"prenom" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,oneof=admin directeur_general directeur_commercial commercial"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUtilisateurRequest struct {
	Nom    *string `json:"nom,omitempty" validate:"omitempty,max=100"`
	Prenom *string `json:"prenom,omitempty" validate:"omitempty,max=100"`
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=admin directeur_general directeur_commercial commercial"`
	Actif  *bool   `json:"actif,omitempty"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}
