package commandes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/devis"
	calc "github.com/Africamobilier/erp/internal/sales/shared"
	"github.com/Africamobilier/erp/internal/shared"
)

type Service struct {
	logger     *slog.Logger
	repo       Repository
	devisRepo  devis.Repository
	clientRepo clients.Repository
	numbers    numbering.Allocator
	audit      shared.Auditor
}

func NewService(logger *slog.Logger, repo Repository, devisRepo devis.Repository, clientRepo clients.Repository, numbers numbering.Allocator, audit shared.Auditor) *Service {
	return &Service{logger: logger, repo: repo, devisRepo: devisRepo, clientRepo: clientRepo, numbers: numbers, audit: audit}
}

func (s *Service) Create(ctx context.Context, req CreateCommandeRequest) (*Commande, error) {
	if _, err := s.clientRepo.Get(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	numero, err := s.numbers.Next(ctx, numbering.DocCommande)
	if err != nil {
		return nil, fmt.Errorf("generate numero commande: %w", err)
	}

	lignes, totaux := buildLignes(req.Lignes, req.TauxRemise)

	c := Commande{
		NumeroCommande:      numero,
		ClientID:            req.ClientID,
		DateCommande:        req.DateCommande,
		DateLivraisonPrevue: req.DateLivraisonPrevue,
		Statut:              StatutEnAttente,
		MontantHT:           totaux.MontantHT,
		MontantTVA:          totaux.MontantTVA,
		MontantTTC:          totaux.MontantTTC,
		TauxRemise:          req.TauxRemise,
		RemiseMontant:       totaux.RemiseMontant,
		ConditionsPaiement:  req.ConditionsPaiement,
		Notes:               req.Notes,
	}

	var commandeID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("create commande: %w", err)
		}
		commandeID = id
		for _, ligne := range lignes {
			ligne.CommandeID = commandeID
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return fmt.Errorf("insert ligne commande: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, commandeID)
}

// ConvertirDevis turns an accepted quote into a confirmed order. Totals are
// copied verbatim, never recomputed; lines are copied into fresh rows. The
// quote ends up "converti" and a prospect client is promoted, all in the same
// transaction.
func (s *Service) ConvertirDevis(ctx context.Context, devisID int64) (*Commande, error) {
	d, err := s.devisRepo.Get(ctx, devisID)
	if err != nil {
		return nil, fmt.Errorf("get devis: %w", err)
	}
	if d.Statut != devis.StatutAccepte {
		return nil, fmt.Errorf("%w: devis %s non convertible (statut %s)", shared.ErrInvalidStatus, d.NumeroDevis, d.Statut)
	}
	if len(d.Lignes) == 0 {
		return nil, fmt.Errorf("%w: devis %s sans lignes", shared.ErrValidation, d.NumeroDevis)
	}

	numero, err := s.numbers.Next(ctx, numbering.DocCommande)
	if err != nil {
		return nil, fmt.Errorf("generate numero commande: %w", err)
	}

	c := Commande{
		NumeroCommande:     numero,
		DevisID:            &d.ID,
		ClientID:           d.ClientID,
		DateCommande:       d.DateDevis,
		Statut:             StatutConfirmee,
		MontantHT:          d.MontantHT,
		MontantTVA:         d.MontantTVA,
		MontantTTC:         d.MontantTTC,
		TauxRemise:         d.TauxRemise,
		RemiseMontant:      d.RemiseMontant,
		ConditionsPaiement: d.ConditionsPaiement,
		Notes:              d.Notes,
	}

	var commandeID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("create commande: %w", err)
		}
		commandeID = id
		for i, ld := range d.Lignes {
			ligne := LigneCommande{
				CommandeID:        commandeID,
				ProduitID:         ld.ProduitID,
				Designation:       ld.Designation,
				Description:       ld.Description,
				Quantite:          ld.Quantite,
				PrixUnitaireHT:    ld.PrixUnitaireHT,
				RemisePourcentage: ld.RemisePourcentage,
				MontantHT:         ld.MontantHT,
				TVAPourcentage:    ld.TVAPourcentage,
				MontantTVA:        ld.MontantTVA,
				MontantTTC:        ld.MontantTTC,
				Ordre:             i + 1,
			}
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return fmt.Errorf("insert ligne commande: %w", err)
			}
		}
		if err := repo.MarquerDevisConverti(ctx, d.ID); err != nil {
			return err
		}
		return repo.PromouvoirProspect(ctx, d.ClientID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "devis.convertir", commandeID, map[string]any{
		"devis_id": d.ID, "numero_devis": d.NumeroDevis, "numero_commande": numero,
	})

	return s.repo.Get(ctx, commandeID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCommandeRequest) (*Commande, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get commande: %w", err)
	}
	if existing.Statut != StatutEnAttente {
		return nil, fmt.Errorf("%w: seules les commandes en attente sont modifiables", shared.ErrInvalidStatus)
	}

	tauxRemise := existing.TauxRemise
	if req.TauxRemise != nil {
		tauxRemise = *req.TauxRemise
	}

	updates := make(map[string]interface{})
	if req.DateCommande != nil {
		updates["date_commande"] = *req.DateCommande
	}
	if req.DateLivraisonPrevue != nil {
		updates["date_livraison_prevue"] = *req.DateLivraisonPrevue
	}
	if req.ConditionsPaiement != nil {
		updates["conditions_paiement"] = *req.ConditionsPaiement
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lignes []LigneCommande
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
				ligne.CommandeID = id
				if _, err := repo.InsertLigne(ctx, ligne); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update commande: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// ChangerStatut applies one transition of the lifecycle table.
func (s *Service) ChangerStatut(ctx context.Context, id int64, target Statut) (*Commande, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get commande: %w", err)
	}
	if !existing.Statut.CanTransition(target) {
		return nil, fmt.Errorf("%w: commande %s -> %s", shared.ErrInvalidStatus, existing.Statut, target)
	}
	if err := s.repo.UpdateStatut(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update statut commande: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Commande, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCommandesRequest) ([]CommandeWithClient, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes an order still awaiting confirmation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get commande: %w", err)
	}
	if existing.Statut != StatutEnAttente {
		return fmt.Errorf("%w: seules les commandes en attente sont supprimables", shared.ErrInvalidStatus)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLignes(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

func (s *Service) recordAudit(ctx context.Context, action string, commandeID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if profile := shared.ProfileFromContext(ctx); profile != nil {
		actorID = profile.UserID
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "commande",
		EntityID: strconv.FormatInt(commandeID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Error("record audit", slog.Any("error", err))
	}
}

func buildLignes(reqs []devis.CreateLigneReq, tauxRemise float64) ([]LigneCommande, calc.DocumentMontants) {
	lignes := make([]LigneCommande, 0, len(reqs))
	montants := make([]calc.LigneMontants, 0, len(reqs))
	for i, lr := range reqs {
		m := calc.CalculerLigne(lr.Quantite, lr.PrixUnitaireHT, lr.RemisePourcentage, lr.TVAPourcentage)
		montants = append(montants, m)
		ordre := lr.Ordre
		if ordre == 0 {
			ordre = i + 1
		}
		lignes = append(lignes, LigneCommande{
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
