package facturation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Africamobilier/erp/internal/livraison"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	calc "github.com/Africamobilier/erp/internal/sales/shared"
	"github.com/Africamobilier/erp/internal/shared"
)

// DelaiEcheanceJours is the default payment term applied when no due date is
// supplied.
const DelaiEcheanceJours = 30

type Service struct {
	logger       *slog.Logger
	repo         Repository
	blRepo       livraison.Repository
	commandeRepo commandes.Repository
	livraisonSvc *livraison.Service
	numbers      numbering.Allocator
	audit        shared.Auditor
}

func NewService(logger *slog.Logger, repo Repository, blRepo livraison.Repository, commandeRepo commandes.Repository, livraisonSvc *livraison.Service, numbers numbering.Allocator, audit shared.Auditor) *Service {
	return &Service{logger: logger, repo: repo, blRepo: blRepo, commandeRepo: commandeRepo, livraisonSvc: livraisonSvc, numbers: numbers, audit: audit}
}

// CreerDepuisBL invoices a delivered note. Amounts and lines come from the
// originating order, not from the note's delivered quantities; if quantities
// diverged, the gap surfaces in the order totals, a deliberate business rule
// pending a crédit-note workflow. The note ends "facturé" and the order
// "livrée", all in one transaction.
func (s *Service) CreerDepuisBL(ctx context.Context, blID int64, req CreerDepuisBLRequest) (*Facture, error) {
	bl, err := s.blRepo.Get(ctx, blID)
	if err != nil {
		return nil, fmt.Errorf("get bon de livraison: %w", err)
	}
	if bl.Statut != livraison.StatutLivre {
		return nil, fmt.Errorf("%w: bon %s non livré (statut %s)", shared.ErrInvalidStatus, bl.NumeroBL, bl.Statut)
	}
	if bl.CommandeID == nil {
		return nil, fmt.Errorf("%w: bon %s sans commande associée", shared.ErrValidation, bl.NumeroBL)
	}

	c, err := s.commandeRepo.Get(ctx, *bl.CommandeID)
	if err != nil {
		return nil, fmt.Errorf("get commande: %w", err)
	}
	if len(c.Lignes) == 0 {
		return nil, fmt.Errorf("%w: commande %s sans lignes", shared.ErrValidation, c.NumeroCommande)
	}

	numero, err := s.numbers.Next(ctx, numbering.DocFacture)
	if err != nil {
		return nil, fmt.Errorf("generate numero facture: %w", err)
	}

	dateFacture := time.Now()
	if req.DateFacture != nil {
		dateFacture = *req.DateFacture
	}
	dateEcheance := dateFacture.AddDate(0, 0, DelaiEcheanceJours)
	if req.DateEcheance != nil {
		dateEcheance = *req.DateEcheance
	}

	f := Facture{
		NumeroFacture:      numero,
		CommandeID:         bl.CommandeID,
		BLID:               &bl.ID,
		ClientID:           bl.ClientID,
		DateFacture:        dateFacture,
		DateEcheance:       dateEcheance,
		Statut:             StatutEmise,
		MontantHT:          c.MontantHT,
		MontantTVA:         c.MontantTVA,
		MontantTTC:         c.MontantTTC,
		MontantPaye:        0,
		SoldeRestant:       c.MontantTTC,
		ConditionsPaiement: c.ConditionsPaiement,
		Notes:              req.Notes,
	}

	var factureID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, f)
		if err != nil {
			return fmt.Errorf("create facture: %w", err)
		}
		factureID = id
		for i, lc := range c.Lignes {
			ligne := LigneFacture{
				FactureID:         factureID,
				ProduitID:         lc.ProduitID,
				Designation:       lc.Designation,
				Description:       lc.Description,
				Quantite:          lc.Quantite,
				PrixUnitaireHT:    lc.PrixUnitaireHT,
				RemisePourcentage: lc.RemisePourcentage,
				MontantHT:         lc.MontantHT,
				TVAPourcentage:    lc.TVAPourcentage,
				MontantTVA:        lc.MontantTVA,
				MontantTTC:        lc.MontantTTC,
				Ordre:             i + 1,
			}
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return fmt.Errorf("insert ligne facture: %w", err)
			}
		}
		if err := repo.UpdateBLStatut(ctx, bl.ID, string(livraison.StatutFacture)); err != nil {
			return err
		}
		return repo.UpdateCommandeStatut(ctx, c.ID, string(commandes.StatutLivree))
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "bl.facturer", factureID, map[string]any{
		"bl_id": bl.ID, "numero_bl": bl.NumeroBL, "numero_facture": numero,
	})

	return s.repo.Get(ctx, factureID)
}

// CreerDepuisCommande is the skip-BL shortcut: it issues a note, closes it
// immediately as delivered, then invoices it. One order yields exactly one
// auto-closed note plus one invoice.
func (s *Service) CreerDepuisCommande(ctx context.Context, commandeID int64) (*Facture, error) {
	bl, err := s.livraisonSvc.CreerDepuisCommande(ctx, commandeID, livraison.CreerDepuisCommandeRequest{})
	if err != nil {
		return nil, fmt.Errorf("creer bl: %w", err)
	}
	if err := s.blRepo.UpdateStatut(ctx, bl.ID, livraison.StatutLivre); err != nil {
		return nil, fmt.Errorf("clore bl auto: %w", err)
	}
	return s.CreerDepuisBL(ctx, bl.ID, CreerDepuisBLRequest{})
}

// EnregistrerPaiement registers one payment. The balance update runs first as
// a compare-and-set; the payment row is only inserted once the update
// succeeded, both in the same transaction, so a rejected payment leaves the
// invoice untouched.
func (s *Service) EnregistrerPaiement(ctx context.Context, factureID int64, req PaiementRequest) (*Facture, error) {
	if req.Montant <= 0 {
		return nil, fmt.Errorf("%w: montant de paiement invalide", shared.ErrValidation)
	}
	existing, err := s.repo.Get(ctx, factureID)
	if err != nil {
		return nil, fmt.Errorf("get facture: %w", err)
	}
	if !existing.Statut.IsPayable() {
		return nil, fmt.Errorf("%w: facture %s non payable (statut %s)", shared.ErrInvalidStatus, existing.NumeroFacture, existing.Statut)
	}

	datePaiement := time.Now()
	if req.DatePaiement != nil {
		datePaiement = *req.DatePaiement
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.ApplyPaiement(ctx, factureID, req.Montant); err != nil {
			return err
		}
		_, err := repo.InsertPaiement(ctx, Paiement{
			FactureID:    factureID,
			Montant:      req.Montant,
			DatePaiement: datePaiement,
			ModePaiement: req.ModePaiement,
			Reference:    req.Reference,
			Notes:        req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "facture.paiement", factureID, map[string]any{
		"numero_facture": existing.NumeroFacture, "montant": req.Montant,
		"montant_formate": calc.FormatMontant(req.Montant), "mode": string(req.ModePaiement),
	})

	return s.repo.Get(ctx, factureID)
}

// ChangerStatut applies one manual transition. Payment statuses are derived,
// never set here; cancelling a partly paid invoice is refused.
func (s *Service) ChangerStatut(ctx context.Context, id int64, target Statut) (*Facture, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get facture: %w", err)
	}
	if !existing.Statut.CanTransition(target) {
		return nil, fmt.Errorf("%w: facture %s -> %s", shared.ErrInvalidStatus, existing.Statut, target)
	}
	if target == StatutAnnulee && existing.MontantPaye > 0 {
		return nil, fmt.Errorf("%w: facture partiellement réglée, annulation impossible", shared.ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatut(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update statut facture: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// MarquerEnRetard flips overdue invoices, returning how many changed.
func (s *Service) MarquerEnRetard(ctx context.Context) (int64, error) {
	return s.repo.MarquerEnRetard(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Facture, error) {
	return s.repo.Get(ctx, id)
}

// Paiements lists the payments recorded against an invoice.
func (s *Service) Paiements(ctx context.Context, factureID int64) ([]Paiement, error) {
	if _, err := s.repo.Get(ctx, factureID); err != nil {
		return nil, fmt.Errorf("get facture: %w", err)
	}
	return s.repo.Paiements(ctx, factureID)
}

func (s *Service) List(ctx context.Context, req ListFacturesRequest) ([]FactureWithClient, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a draft invoice.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get facture: %w", err)
	}
	if existing.Statut != StatutBrouillon {
		return fmt.Errorf("%w: seules les factures brouillon sont supprimables", shared.ErrInvalidStatus)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, action string, factureID int64, meta map[string]any) {
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
		Entity:   "facture",
		EntityID: strconv.FormatInt(factureID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Error("record audit", slog.Any("error", err))
	}
}
