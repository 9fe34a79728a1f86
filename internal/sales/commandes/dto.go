package commandes

import (
	"time"

	"github.com/Africamobilier/erp/internal/sales/devis"
)

type CreateCommandeRequest struct {
	ClientID            int64                  `json:"client_id" validate:"required,gt=0"`
	DateCommande        time.Time              `json:"date_commande" validate:"required"`
	DateLivraisonPrevue *time.Time             `json:"date_livraison_prevue,omitempty"`
	TauxRemise          float64                `json:"taux_remise" validate:"gte=0,lte=100"`
	ConditionsPaiement  *string                `json:"conditions_paiement,omitempty"`
	Notes               *string                `json:"notes,omitempty"`
	Lignes              []devis.CreateLigneReq `json:"lignes" validate:"required,min=1,dive"`
}

type UpdateCommandeRequest struct {
	DateCommande        *time.Time              `json:"date_commande,omitempty"`
	DateLivraisonPrevue *time.Time              `json:"date_livraison_prevue,omitempty"`
	TauxRemise          *float64                `json:"taux_remise,omitempty" validate:"omitempty,gte=0,lte=100"`
	ConditionsPaiement  *string                 `json:"conditions_paiement,omitempty"`
	Notes               *string                 `json:"notes,omitempty"`
	Lignes              *[]devis.CreateLigneReq `json:"lignes,omitempty" validate:"omitempty,min=1,dive"`
}

type ListCommandesRequest struct {
	ClientID *int64     `json:"client_id,omitempty"`
	Statut   *Statut    `json:"statut,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}

// CommandeWithClient includes joined display data.
type CommandeWithClient struct {
	Commande
	RaisonSociale string `json:"raison_sociale" db:"raison_sociale"`
	CodeClient    string `json:"code_client" db:"code_client"`
}
