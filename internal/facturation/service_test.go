package facturation

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Africamobilier/erp/internal/livraison"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	"github.com/Africamobilier/erp/internal/shared"
)

type memoryCommandesRepo struct {
	commandes map[int64]*commandes.Commande
	lignes    map[int64][]commandes.LigneCommande
}

func (r *memoryCommandesRepo) WithTx(ctx context.Context, fn func(context.Context, commandes.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryCommandesRepo) Get(ctx context.Context, id int64) (*commandes.Commande, error) {
	c, ok := r.commandes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	cp.Lignes = append([]commandes.LigneCommande(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryCommandesRepo) List(ctx context.Context, req commandes.ListCommandesRequest) ([]commandes.CommandeWithClient, int, error) {
	return nil, 0, nil
}

func (r *memoryCommandesRepo) Create(ctx context.Context, c commandes.Commande) (int64, error) {
	id := int64(len(r.commandes) + 1)
	c.ID = id
	r.commandes[id] = &c
	return id, nil
}

func (r *memoryCommandesRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}

func (r *memoryCommandesRepo) UpdateStatut(ctx context.Context, id int64, statut commandes.Statut) error {
	c, ok := r.commandes[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Statut = statut
	return nil
}

func (r *memoryCommandesRepo) InsertLigne(ctx context.Context, l commandes.LigneCommande) (int64, error) {
	r.lignes[l.CommandeID] = append(r.lignes[l.CommandeID], l)
	return int64(len(r.lignes[l.CommandeID])), nil
}

func (r *memoryCommandesRepo) DeleteLignes(ctx context.Context, commandeID int64) error {
	delete(r.lignes, commandeID)
	return nil
}

func (r *memoryCommandesRepo) Delete(ctx context.Context, id int64) error {
	delete(r.commandes, id)
	return nil
}

func (r *memoryCommandesRepo) MarquerDevisConverti(ctx context.Context, devisID int64) error {
	return nil
}

func (r *memoryCommandesRepo) PromouvoirProspect(ctx context.Context, clientID int64) error {
	return nil
}

type memoryBLRepo struct {
	bls          map[int64]*livraison.BonLivraison
	lignes       map[int64][]livraison.LigneBL
	nextID       int64
	lineID       int64
	commandeRepo *memoryCommandesRepo
}

func (r *memoryBLRepo) WithTx(ctx context.Context, fn func(context.Context, livraison.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryBLRepo) Get(ctx context.Context, id int64) (*livraison.BonLivraison, error) {
	bl, ok := r.bls[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *bl
	cp.Lignes = append([]livraison.LigneBL(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryBLRepo) List(ctx context.Context, req livraison.ListBLRequest) ([]livraison.BLWithClient, int, error) {
	return nil, 0, nil
}

func (r *memoryBLRepo) Create(ctx context.Context, bl livraison.BonLivraison) (int64, error) {
	r.nextID++
	bl.ID = r.nextID
	r.bls[bl.ID] = &bl
	return bl.ID, nil
}

func (r *memoryBLRepo) UpdateStatut(ctx context.Context, id int64, statut livraison.Statut) error {
	bl, ok := r.bls[id]
	if !ok {
		return shared.ErrNotFound
	}
	bl.Statut = statut
	return nil
}

func (r *memoryBLRepo) UpdateQuantiteLivree(ctx context.Context, ligneID int64, quantite float64) error {
	return nil
}

func (r *memoryBLRepo) InsertLigne(ctx context.Context, l livraison.LigneBL) (int64, error) {
	r.lineID++
	l.ID = r.lineID
	r.lignes[l.BLID] = append(r.lignes[l.BLID], l)
	return l.ID, nil
}

func (r *memoryBLRepo) Delete(ctx context.Context, id int64) error {
	delete(r.bls, id)
	return nil
}

func (r *memoryBLRepo) UpdateCommandeStatut(ctx context.Context, commandeID int64, statut string) error {
	c, ok := r.commandeRepo.commandes[commandeID]
	if !ok {
		return shared.ErrNotFound
	}
	c.Statut = commandes.Statut(statut)
	return nil
}

type memoryFactureRepo struct {
	factures     map[int64]*Facture
	lignes       map[int64][]LigneFacture
	paiements    map[int64][]Paiement
	nextID       int64
	lineID       int64
	paiementID   int64
	blRepo       *memoryBLRepo
	commandeRepo *memoryCommandesRepo
}

func newMemoryFactureRepo(blr *memoryBLRepo, cr *memoryCommandesRepo) *memoryFactureRepo {
	return &memoryFactureRepo{
		factures:     make(map[int64]*Facture),
		lignes:       make(map[int64][]LigneFacture),
		paiements:    make(map[int64][]Paiement),
		blRepo:       blr,
		commandeRepo: cr,
	}
}

func (r *memoryFactureRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryFactureRepo) Get(ctx context.Context, id int64) (*Facture, error) {
	f, ok := r.factures[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *f
	cp.Lignes = append([]LigneFacture(nil), r.lignes[id]...)
	cp.Paiements = append([]Paiement(nil), r.paiements[id]...)
	return &cp, nil
}

func (r *memoryFactureRepo) List(ctx context.Context, req ListFacturesRequest) ([]FactureWithClient, int, error) {
	return nil, 0, nil
}

func (r *memoryFactureRepo) Create(ctx context.Context, f Facture) (int64, error) {
	r.nextID++
	f.ID = r.nextID
	r.factures[f.ID] = &f
	return f.ID, nil
}

func (r *memoryFactureRepo) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	f, ok := r.factures[id]
	if !ok {
		return shared.ErrNotFound
	}
	f.Statut = statut
	return nil
}

func (r *memoryFactureRepo) InsertLigne(ctx context.Context, l LigneFacture) (int64, error) {
	r.lineID++
	l.ID = r.lineID
	r.lignes[l.FactureID] = append(r.lignes[l.FactureID], l)
	return l.ID, nil
}

func (r *memoryFactureRepo) InsertPaiement(ctx context.Context, p Paiement) (int64, error) {
	r.paiementID++
	p.ID = r.paiementID
	r.paiements[p.FactureID] = append(r.paiements[p.FactureID], p)
	return p.ID, nil
}

func (r *memoryFactureRepo) ApplyPaiement(ctx context.Context, factureID int64, montant float64) (Statut, error) {
	f, ok := r.factures[factureID]
	if !ok {
		return "", fmt.Errorf("paiement refusé (solde insuffisant ou facture non payable): %w", shared.ErrValidation)
	}
	if !f.Statut.IsPayable() || f.MontantTTC-f.MontantPaye < montant-0.005 {
		return "", fmt.Errorf("paiement refusé (solde insuffisant ou facture non payable): %w", shared.ErrValidation)
	}
	f.MontantPaye += montant
	f.SoldeRestant = f.MontantTTC - f.MontantPaye
	if f.SoldeRestant <= 0.005 {
		f.Statut = StatutPayee
	} else {
		f.Statut = StatutPartiellementPayee
	}
	return f.Statut, nil
}

func (r *memoryFactureRepo) Paiements(ctx context.Context, factureID int64) ([]Paiement, error) {
	return r.paiements[factureID], nil
}

func (r *memoryFactureRepo) MarquerEnRetard(ctx context.Context) (int64, error) {
	var n int64
	for _, f := range r.factures {
		if (f.Statut == StatutEmise || f.Statut == StatutPartiellementPayee) && f.DateEcheance.Before(time.Now()) {
			f.Statut = StatutEnRetard
			n++
		}
	}
	return n, nil
}

func (r *memoryFactureRepo) Delete(ctx context.Context, id int64) error {
	delete(r.factures, id)
	delete(r.lignes, id)
	return nil
}

func (r *memoryFactureRepo) UpdateBLStatut(ctx context.Context, blID int64, statut string) error {
	bl, ok := r.blRepo.bls[blID]
	if !ok {
		return shared.ErrNotFound
	}
	bl.Statut = livraison.Statut(statut)
	return nil
}

func (r *memoryFactureRepo) UpdateCommandeStatut(ctx context.Context, commandeID int64, statut string) error {
	c, ok := r.commandeRepo.commandes[commandeID]
	if !ok {
		return shared.ErrNotFound
	}
	c.Statut = commandes.Statut(statut)
	return nil
}

type seqAllocator struct {
	counters map[numbering.DocType]int64
}

func (a *seqAllocator) Next(ctx context.Context, docType numbering.DocType) (string, error) {
	if a.counters == nil {
		a.counters = make(map[numbering.DocType]int64)
	}
	a.counters[docType]++
	prefix := map[numbering.DocType]string{
		numbering.DocBonLivraison: "BL",
		numbering.DocFacture:      "FACT",
	}[docType]
	return fmt.Sprintf("%s-%06d", prefix, a.counters[docType]), nil
}

type testEnv struct {
	svc          *Service
	repo         *memoryFactureRepo
	blRepo       *memoryBLRepo
	commandeRepo *memoryCommandesRepo
	livraisonSvc *livraison.Service
}

func newTestEnv() testEnv {
	cr := &memoryCommandesRepo{
		commandes: map[int64]*commandes.Commande{
			1: {ID: 1, NumeroCommande: "CMD-000001", ClientID: 1, Statut: commandes.StatutConfirmee,
				MontantHT: 500, MontantTVA: 100, MontantTTC: 600},
		},
		lignes: map[int64][]commandes.LigneCommande{
			1: {
				{ID: 1, CommandeID: 1, Designation: "Bureau chêne", Quantite: 5, PrixUnitaireHT: 100,
					TVAPourcentage: 20, MontantHT: 500, MontantTVA: 100, MontantTTC: 600, Ordre: 1},
			},
		},
	}
	blr := &memoryBLRepo{bls: make(map[int64]*livraison.BonLivraison), lignes: make(map[int64][]livraison.LigneBL), commandeRepo: cr}
	alloc := &seqAllocator{}
	livraisonSvc := livraison.NewService(slog.Default(), blr, cr, alloc, nil)
	repo := newMemoryFactureRepo(blr, cr)
	svc := NewService(slog.Default(), repo, blr, cr, livraisonSvc, alloc, nil)
	return testEnv{svc: svc, repo: repo, blRepo: blr, commandeRepo: cr, livraisonSvc: livraisonSvc}
}

// livreBL walks a fresh delivery note to "livré".
func livreBL(t *testing.T, env testEnv) *livraison.BonLivraison {
	t.Helper()
	bl, err := env.livraisonSvc.CreerDepuisCommande(context.Background(), 1, livraison.CreerDepuisCommandeRequest{})
	require.NoError(t, err)
	bl, err = env.livraisonSvc.ChangerStatut(context.Background(), bl.ID, livraison.StatutExpedie)
	require.NoError(t, err)
	bl, err = env.livraisonSvc.ChangerStatut(context.Background(), bl.ID, livraison.StatutLivre)
	require.NoError(t, err)
	return bl
}

func TestCreerDepuisBL(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)

	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.NoError(t, err)
	require.Equal(t, StatutEmise, f.Statut)
	require.Equal(t, "FACT-000001", f.NumeroFacture)

	// amounts come from the order, balance opens at the full TTC
	require.InDelta(t, 500.0, f.MontantHT, 0.001)
	require.InDelta(t, 100.0, f.MontantTVA, 0.001)
	require.InDelta(t, 600.0, f.MontantTTC, 0.001)
	require.InDelta(t, 600.0, f.SoldeRestant, 0.001)
	require.InDelta(t, 0.0, f.MontantPaye, 0.001)
	require.Len(t, f.Lignes, 1)

	// due in 30 days by default
	require.WithinDuration(t, time.Now().AddDate(0, 0, DelaiEcheanceJours), f.DateEcheance, time.Minute)

	require.Equal(t, livraison.StatutFacture, env.blRepo.bls[bl.ID].Statut)
	require.Equal(t, commandes.StatutLivree, env.commandeRepo.commandes[1].Statut)
}

func TestCreerDepuisBLRequiresLivre(t *testing.T) {
	env := newTestEnv()

	bl, err := env.livraisonSvc.CreerDepuisCommande(context.Background(), 1, livraison.CreerDepuisCommandeRequest{})
	require.NoError(t, err)

	_, err = env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestCreerDepuisBLSansCommande(t *testing.T) {
	env := newTestEnv()
	env.blRepo.nextID++
	env.blRepo.bls[env.blRepo.nextID] = &livraison.BonLivraison{
		ID: env.blRepo.nextID, NumeroBL: "BL-000099", ClientID: 1, Statut: livraison.StatutLivre,
	}

	_, err := env.svc.CreerDepuisBL(context.Background(), env.blRepo.nextID, CreerDepuisBLRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreerDepuisCommandeShortcut(t *testing.T) {
	env := newTestEnv()

	f, err := env.svc.CreerDepuisCommande(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, StatutEmise, f.Statut)
	require.NotNil(t, f.BLID)

	// exactly one auto-closed note
	require.Len(t, env.blRepo.bls, 1)
	require.Equal(t, livraison.StatutFacture, env.blRepo.bls[*f.BLID].Statut)
	require.Equal(t, commandes.StatutLivree, env.commandeRepo.commandes[1].Statut)
}

func TestEnregistrerPaiementPartielPuisTotal(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)
	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.NoError(t, err)

	f, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 200, ModePaiement: ModeVirement})
	require.NoError(t, err)
	require.Equal(t, StatutPartiellementPayee, f.Statut)
	require.InDelta(t, 200.0, f.MontantPaye, 0.001)
	require.InDelta(t, 400.0, f.SoldeRestant, 0.001)

	f, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 400, ModePaiement: ModeCheque})
	require.NoError(t, err)
	require.Equal(t, StatutPayee, f.Statut)
	require.InDelta(t, 0.0, f.SoldeRestant, 0.001)
	require.Len(t, f.Paiements, 2)

	// invariant after every payment
	require.InDelta(t, f.MontantTTC-f.MontantPaye, f.SoldeRestant, 0.001)
}

func TestEnregistrerPaiementOverdrawRejected(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)
	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.NoError(t, err)

	_, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 700, ModePaiement: ModeVirement})
	require.ErrorIs(t, err, shared.ErrValidation)

	// state unchanged, no payment row written
	f, err = env.svc.Get(context.Background(), f.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.0, f.MontantPaye, 0.001)
	require.InDelta(t, 600.0, f.SoldeRestant, 0.001)
	require.Empty(t, f.Paiements)
	require.Equal(t, StatutEmise, f.Statut)
}

func TestEnregistrerPaiementSurFacturePayee(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)
	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.NoError(t, err)

	_, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 600, ModePaiement: ModeVirement})
	require.NoError(t, err)

	_, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 1, ModePaiement: ModeEspeces})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestAnnulationFacturePayeeImpossible(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)
	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{})
	require.NoError(t, err)

	_, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 100, ModePaiement: ModeCarte})
	require.NoError(t, err)

	_, err = env.svc.ChangerStatut(context.Background(), f.ID, StatutAnnulee)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestMarquerEnRetard(t *testing.T) {
	env := newTestEnv()
	bl := livreBL(t, env)
	past := time.Now().AddDate(0, 0, -40)
	echeance := past.AddDate(0, 0, DelaiEcheanceJours)
	f, err := env.svc.CreerDepuisBL(context.Background(), bl.ID, CreerDepuisBLRequest{DateFacture: &past, DateEcheance: &echeance})
	require.NoError(t, err)

	n, err := env.svc.MarquerEnRetard(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	f, err = env.svc.Get(context.Background(), f.ID)
	require.NoError(t, err)
	require.Equal(t, StatutEnRetard, f.Statut)

	// an overdue invoice still accepts payment and can close
	f, err = env.svc.EnregistrerPaiement(context.Background(), f.ID, PaiementRequest{Montant: 600, ModePaiement: ModeVirement})
	require.NoError(t, err)
	require.Equal(t, StatutPayee, f.Statut)
}
