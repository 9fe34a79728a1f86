package livraison

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	"github.com/Africamobilier/erp/internal/shared"
)

type Service struct {
	logger       *slog.Logger
	repo         Repository
	commandeRepo commandes.Repository
	numbers      numbering.Allocator
	audit        shared.Auditor
}

func NewService(logger *slog.Logger, repo Repository, commandeRepo commandes.Repository, numbers numbering.Allocator, audit shared.Auditor) *Service {
	return &Service{logger: logger, repo: repo, commandeRepo: commandeRepo, numbers: numbers, audit: audit}
}

// CreerDepuisCommande issues a delivery note from an order. The note starts
// "préparé" with every ordered quantity marked delivered; the order moves to
// "en_livraison" in the same transaction. Invoicing, not note creation, is
// what later closes the order as "livrée".
func (s *Service) CreerDepuisCommande(ctx context.Context, commandeID int64, req CreerDepuisCommandeRequest) (*BonLivraison, error) {
	c, err := s.commandeRepo.Get(ctx, commandeID)
	if err != nil {
		return nil, fmt.Errorf("get commande: %w", err)
	}
	if !c.Statut.CanCreerBL() {
		return nil, fmt.Errorf("%w: commande %s non livrable (statut %s)", shared.ErrInvalidStatus, c.NumeroCommande, c.Statut)
	}
	if len(c.Lignes) == 0 {
		return nil, fmt.Errorf("%w: commande %s sans lignes", shared.ErrValidation, c.NumeroCommande)
	}

	numero, err := s.numbers.Next(ctx, numbering.DocBonLivraison)
	if err != nil {
		return nil, fmt.Errorf("generate numero bl: %w", err)
	}

	dateLivraison := time.Now()
	if req.DateLivraison != nil {
		dateLivraison = *req.DateLivraison
	}

	bl := BonLivraison{
		NumeroBL:         numero,
		CommandeID:       &c.ID,
		ClientID:         c.ClientID,
		DateLivraison:    dateLivraison,
		Statut:           StatutPrepare,
		AdresseLivraison: req.AdresseLivraison,
		Transporteur:     req.Transporteur,
		Notes:            req.Notes,
	}

	var blID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, bl)
		if err != nil {
			return fmt.Errorf("create bon de livraison: %w", err)
		}
		blID = id
		for i, lc := range c.Lignes {
			ligne := LigneBL{
				BLID:              blID,
				ProduitID:         lc.ProduitID,
				Designation:       lc.Designation,
				QuantiteCommandee: lc.Quantite,
				QuantiteLivree:    lc.Quantite,
				Ordre:             i + 1,
			}
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return fmt.Errorf("insert ligne bl: %w", err)
			}
		}
		return repo.UpdateCommandeStatut(ctx, c.ID, string(commandes.StatutEnLivraison))
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "commande.creer_bl", blID, map[string]any{
		"commande_id": c.ID, "numero_commande": c.NumeroCommande, "numero_bl": numero,
	})

	return s.repo.Get(ctx, blID)
}

// ChangerStatut applies one transition of the lifecycle table.
func (s *Service) ChangerStatut(ctx context.Context, id int64, target Statut) (*BonLivraison, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bon de livraison: %w", err)
	}
	if !existing.Statut.CanTransition(target) {
		return nil, fmt.Errorf("%w: bon de livraison %s -> %s", shared.ErrInvalidStatus, existing.Statut, target)
	}
	if err := s.repo.UpdateStatut(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update statut bl: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// UpdateQuantites adjusts delivered quantities while the note is still
// "préparé". Delivered may not exceed ordered.
func (s *Service) UpdateQuantites(ctx context.Context, id int64, req UpdateQuantitesRequest) (*BonLivraison, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bon de livraison: %w", err)
	}
	if existing.Statut != StatutPrepare {
		return nil, fmt.Errorf("%w: quantités modifiables uniquement en préparation", shared.ErrInvalidStatus)
	}

	commandees := make(map[int64]float64, len(existing.Lignes))
	for _, l := range existing.Lignes {
		commandees[l.ID] = l.QuantiteCommandee
	}
	for _, lr := range req.Lignes {
		max, ok := commandees[lr.LigneID]
		if !ok {
			return nil, fmt.Errorf("%w: ligne %d absente du bon", shared.ErrValidation, lr.LigneID)
		}
		if lr.QuantiteLivree > max {
			return nil, fmt.Errorf("%w: quantité livrée %.2f > commandée %.2f", shared.ErrValidation, lr.QuantiteLivree, max)
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, lr := range req.Lignes {
			if err := repo.UpdateQuantiteLivree(ctx, lr.LigneID, lr.QuantiteLivree); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quantités bl: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*BonLivraison, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListBLRequest) ([]BLWithClient, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a note still in preparation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get bon de livraison: %w", err)
	}
	if existing.Statut != StatutPrepare {
		return fmt.Errorf("%w: seuls les bons préparés sont supprimables", shared.ErrInvalidStatus)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, action string, blID int64, meta map[string]any) {
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
		Entity:   "bon_livraison",
		EntityID: strconv.FormatInt(blID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Error("record audit", slog.Any("error", err))
	}
}
