package devis

import (
	"context"
	"fmt"

	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/numbering"
	calc "github.com/Africamobilier/erp/internal/sales/shared"
	"github.com/Africamobilier/erp/internal/shared"
)

type Service struct {
	repo       Repository
	clientRepo clients.Repository
	numbers    numbering.Allocator
}

func NewService(repo Repository, clientRepo clients.Repository, numbers numbering.Allocator) *Service {
	return &Service{repo: repo, clientRepo: clientRepo, numbers: numbers}
}

func (s *Service) Create(ctx context.Context, req CreateDevisRequest) (*Devis, error) {
	if _, err := s.clientRepo.Get(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	numero, err := s.numbers.Next(ctx, numbering.DocDevis)
	if err != nil {
		return nil, fmt.Errorf("generate numero devis: %w", err)
	}

	lignes, totaux := buildLignes(req.Lignes, req.TauxRemise)

	d := Devis{
		NumeroDevis:        numero,
		ClientID:           req.ClientID,
		DateDevis:          req.DateDevis,
		DateValidite:       req.DateValidite,
		Statut:             StatutBrouillon,
		MontantHT:          totaux.MontantHT,
		MontantTVA:         totaux.MontantTVA,
		MontantTTC:         totaux.MontantTTC,
		TauxRemise:         req.TauxRemise,
		RemiseMontant:      totaux.RemiseMontant,
		ConditionsPaiement: req.ConditionsPaiement,
		DelaiLivraison:     req.DelaiLivraison,
		Notes:              req.Notes,
	}

	var devisID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, d)
		if err != nil {
			return fmt.Errorf("create devis: %w", err)
		}
		devisID = id
		for _, ligne := range lignes {
			ligne.DevisID = devisID
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return fmt.Errorf("insert ligne devis: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, devisID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateDevisRequest) (*Devis, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get devis: %w", err)
	}
	if existing.Statut != StatutBrouillon {
		return nil, fmt.Errorf("%w: seuls les devis brouillon sont modifiables", shared.ErrInvalidStatus)
	}

	tauxRemise := existing.TauxRemise
	if req.TauxRemise != nil {
		tauxRemise = *req.TauxRemise
	}

	updates := make(map[string]interface{})
	if req.DateDevis != nil {
		updates["date_devis"] = *req.DateDevis
	}
	if req.DateValidite != nil {
		updates["date_validite"] = *req.DateValidite
	}
	if req.ConditionsPaiement != nil {
		updates["conditions_paiement"] = *req.ConditionsPaiement
	}
	if req.DelaiLivraison != nil {
		updates["delai_livraison"] = *req.DelaiLivraison
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lignes []LigneDevis
	if req.Lignes != nil {
		var totaux calc.DocumentMontants
		lignes, totaux = buildLignes(*req.Lignes, tauxRemise)
		updates["taux_remise"] = tauxRemise
		updates["remise_montant"] = totaux.RemiseMontant
		updates["montant_ht"] = totaux.MontantHT
		updates["montant_tva"] = totaux.MontantTVA
		updates["montant_ttc"] = totaux.MontantTTC
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Lignes != nil {
			if err := repo.DeleteLignes(ctx, id); err != nil {
				return err
			}
			for _, ligne := range lignes {
				ligne.DevisID = id
				if _, err := repo.InsertLigne(ctx, ligne); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update devis: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// ChangerStatut applies one transition of the lifecycle table.
func (s *Service) ChangerStatut(ctx context.Context, id int64, target Statut) (*Devis, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get devis: %w", err)
	}
	if !existing.Statut.CanTransition(target) {
		return nil, fmt.Errorf("%w: devis %s -> %s", shared.ErrInvalidStatus, existing.Statut, target)
	}
	if err := s.repo.UpdateStatut(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update statut devis: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Devis, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListDevisRequest) ([]DevisWithClient, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a quote still in its earliest status.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get devis: %w", err)
	}
	if existing.Statut != StatutBrouillon {
		return fmt.Errorf("%w: seuls les devis brouillon sont supprimables", shared.ErrInvalidStatus)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLignes(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

func buildLignes(reqs []CreateLigneReq, tauxRemise float64) ([]LigneDevis, calc.DocumentMontants) {
	lignes := make([]LigneDevis, 0, len(reqs))
	montants := make([]calc.LigneMontants, 0, len(reqs))
	for i, lr := range reqs {
		m := calc.CalculerLigne(lr.Quantite, lr.PrixUnitaireHT, lr.RemisePourcentage, lr.TVAPourcentage)
		montants = append(montants, m)
		ordre := lr.Ordre
		if ordre == 0 {
			ordre = i + 1
		}
		lignes = append(lignes, LigneDevis{
			ProduitID:         lr.ProduitID,
			Designation:       lr.Designation,
			Description:       lr.Description,
			Quantite:          lr.Quantite,
			PrixUnitaireHT:    lr.PrixUnitaireHT,
			RemisePourcentage: lr.RemisePourcentage,
			MontantHT:         m.MontantHT,
			TVAPourcentage:    lr.TVAPourcentage,
			MontantTVA:        m.MontantTVA,
			MontantTTC:        m.MontantTTC,
			Ordre:             ordre,
		})
	}
	return lignes, calc.CalculerDocument(montants, tauxRemise)
}
