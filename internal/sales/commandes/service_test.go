package commandes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/devis"
	"github.com/Africamobilier/erp/internal/shared"
)

type memoryDevisRepo struct {
	devis  map[int64]*devis.Devis
	lignes map[int64][]devis.LigneDevis
	nextID int64
}

func (r *memoryDevisRepo) WithTx(ctx context.Context, fn func(context.Context, devis.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryDevisRepo) Get(ctx context.Context, id int64) (*devis.Devis, error) {
	d, ok := r.devis[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *d
	cp.Lignes = append([]devis.LigneDevis(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryDevisRepo) GetByWoocommerceQuoteID(ctx context.Context, wcQuoteID int64) (*devis.Devis, error) {
	return nil, shared.ErrNotFound
}

func (r *memoryDevisRepo) List(ctx context.Context, req devis.ListDevisRequest) ([]devis.DevisWithClient, int, error) {
	return nil, 0, nil
}

func (r *memoryDevisRepo) Create(ctx context.Context, d devis.Devis) (int64, error) {
	r.nextID++
	d.ID = r.nextID
	r.devis[d.ID] = &d
	return d.ID, nil
}

func (r *memoryDevisRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}

func (r *memoryDevisRepo) UpdateStatut(ctx context.Context, id int64, statut devis.Statut) error {
	d, ok := r.devis[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Statut = statut
	return nil
}

func (r *memoryDevisRepo) InsertLigne(ctx context.Context, l devis.LigneDevis) (int64, error) {
	r.lignes[l.DevisID] = append(r.lignes[l.DevisID], l)
	return int64(len(r.lignes[l.DevisID])), nil
}

func (r *memoryDevisRepo) DeleteLignes(ctx context.Context, devisID int64) error {
	delete(r.lignes, devisID)
	return nil
}

func (r *memoryDevisRepo) Delete(ctx context.Context, id int64) error {
	delete(r.devis, id)
	return nil
}

type memoryClientsRepo struct {
	clients map[int64]*clients.Client
}

func (r *memoryClientsRepo) WithTx(ctx context.Context, fn func(context.Context, clients.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryClientsRepo) Get(ctx context.Context, id int64) (*clients.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryClientsRepo) GetByWoocommerceID(ctx context.Context, wcID int64) (*clients.Client, error) {
	return nil, shared.ErrNotFound
}

func (r *memoryClientsRepo) List(ctx context.Context, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	return nil, 0, nil
}

func (r *memoryClientsRepo) Create(ctx context.Context, c clients.Client) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *memoryClientsRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}

func (r *memoryClientsRepo) UpsertExterne(ctx context.Context, req clients.UpsertExterneRequest) (int64, bool, error) {
	return 0, false, errors.New("not implemented")
}

func (r *memoryClientsRepo) Promouvoir(ctx context.Context, id int64) error {
	return nil
}

func (r *memoryClientsRepo) Delete(ctx context.Context, id int64) error {
	delete(r.clients, id)
	return nil
}

type memoryCommandesRepo struct {
	commandes  map[int64]*Commande
	lignes     map[int64][]LigneCommande
	nextID     int64
	lineID     int64
	devisRepo  *memoryDevisRepo
	clientRepo *memoryClientsRepo
}

func newMemoryCommandesRepo(dr *memoryDevisRepo, cr *memoryClientsRepo) *memoryCommandesRepo {
	return &memoryCommandesRepo{
		commandes:  make(map[int64]*Commande),
		lignes:     make(map[int64][]LigneCommande),
		devisRepo:  dr,
		clientRepo: cr,
	}
}

func (r *memoryCommandesRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryCommandesRepo) Get(ctx context.Context, id int64) (*Commande, error) {
	c, ok := r.commandes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	cp.Lignes = append([]LigneCommande(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryCommandesRepo) List(ctx context.Context, req ListCommandesRequest) ([]CommandeWithClient, int, error) {
	var out []CommandeWithClient
	for _, c := range r.commandes {
		out = append(out, CommandeWithClient{Commande: *c})
	}
	return out, len(out), nil
}

func (r *memoryCommandesRepo) Create(ctx context.Context, c Commande) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.commandes[c.ID] = &c
	return c.ID, nil
}

func (r *memoryCommandesRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	c, ok := r.commandes[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "montant_ht":
			c.MontantHT = v.(float64)
		case "montant_tva":
			c.MontantTVA = v.(float64)
		case "montant_ttc":
			c.MontantTTC = v.(float64)
		case "taux_remise":
			c.TauxRemise = v.(float64)
		case "remise_montant":
			c.RemiseMontant = v.(float64)
		}
	}
	return nil
}

func (r *memoryCommandesRepo) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	c, ok := r.commandes[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Statut = statut
	return nil
}

func (r *memoryCommandesRepo) InsertLigne(ctx context.Context, l LigneCommande) (int64, error) {
	r.lineID++
	l.ID = r.lineID
	r.lignes[l.CommandeID] = append(r.lignes[l.CommandeID], l)
	return l.ID, nil
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
	d, ok := r.devisRepo.devis[devisID]
	if !ok || d.Statut != devis.StatutAccepte {
		return fmt.Errorf("devis %d non accepté ou déjà converti: %w", devisID, shared.ErrInvalidStatus)
	}
	d.Statut = devis.StatutConverti
	return nil
}

func (r *memoryCommandesRepo) PromouvoirProspect(ctx context.Context, clientID int64) error {
	c, ok := r.clientRepo.clients[clientID]
	if !ok {
		return nil
	}
	if c.Type == clients.TypeProspect {
		c.Type = clients.TypeClient
		now := time.Now()
		c.DateDerniereCommande = &now
	}
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
	return fmt.Sprintf("CMD-%06d", a.counters[docType]), nil
}

type testEnv struct {
	svc        *Service
	repo       *memoryCommandesRepo
	devisRepo  *memoryDevisRepo
	clientRepo *memoryClientsRepo
}

func newTestEnv() testEnv {
	dr := &memoryDevisRepo{devis: make(map[int64]*devis.Devis), lignes: make(map[int64][]devis.LigneDevis)}
	cr := &memoryClientsRepo{clients: map[int64]*clients.Client{
		1: {ID: 1, CodeClient: "CLI-000001", RaisonSociale: "Mobilier Atlas", Type: clients.TypeProspect},
	}}
	repo := newMemoryCommandesRepo(dr, cr)
	svc := NewService(slog.Default(), repo, dr, cr, &seqAllocator{}, nil)
	return testEnv{svc: svc, repo: repo, devisRepo: dr, clientRepo: cr}
}

func seedDevisAccepte(env testEnv) *devis.Devis {
	d := &devis.Devis{
		ID:          1,
		NumeroDevis: "DEV-000001",
		ClientID:    1,
		DateDevis:   time.Now(),
		Statut:      devis.StatutAccepte,
		MontantHT:   1000,
		MontantTVA:  200,
		MontantTTC:  1200,
	}
	env.devisRepo.devis[d.ID] = d
	env.devisRepo.lignes[d.ID] = []devis.LigneDevis{
		{ID: 1, DevisID: 1, Designation: "Bureau chêne", Quantite: 5, PrixUnitaireHT: 100, TVAPourcentage: 20, MontantHT: 500, MontantTVA: 100, MontantTTC: 600, Ordre: 1},
		{ID: 2, DevisID: 1, Designation: "Fauteuil cuir", Quantite: 5, PrixUnitaireHT: 100, TVAPourcentage: 20, MontantHT: 500, MontantTVA: 100, MontantTTC: 600, Ordre: 2},
	}
	return d
}

func TestConvertirDevisCopiesTotalsAndLines(t *testing.T) {
	env := newTestEnv()
	seedDevisAccepte(env)

	c, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, StatutConfirmee, c.Statut)
	require.Equal(t, "CMD-000001", c.NumeroCommande)
	require.NotNil(t, c.DevisID)
	require.Equal(t, int64(1), *c.DevisID)

	// Totals are copied verbatim, never recomputed.
	require.InDelta(t, 1000.0, c.MontantHT, 0.001)
	require.InDelta(t, 200.0, c.MontantTVA, 0.001)
	require.InDelta(t, 1200.0, c.MontantTTC, 0.001)

	require.Len(t, c.Lignes, 2)
	require.Equal(t, "Bureau chêne", c.Lignes[0].Designation)
	require.InDelta(t, 500.0, c.Lignes[0].MontantHT, 0.001)
	require.Equal(t, 1, c.Lignes[0].Ordre)
	require.Equal(t, 2, c.Lignes[1].Ordre)
}

func TestConvertirDevisMarksQuoteConverti(t *testing.T) {
	env := newTestEnv()
	seedDevisAccepte(env)

	_, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, devis.StatutConverti, env.devisRepo.devis[1].Statut)

	// second conversion hits the status guard
	_, err = env.svc.ConvertirDevis(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertirDevisPromotesProspect(t *testing.T) {
	env := newTestEnv()
	seedDevisAccepte(env)

	_, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.NoError(t, err)

	c := env.clientRepo.clients[1]
	require.Equal(t, clients.TypeClient, c.Type)
	require.NotNil(t, c.DateDerniereCommande)
}

func TestConvertirDevisRequiresAccepte(t *testing.T) {
	env := newTestEnv()
	d := seedDevisAccepte(env)
	d.Statut = devis.StatutEnvoye

	_, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertirDevisMissing(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ConvertirDevis(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChangerStatutLifecycle(t *testing.T) {
	env := newTestEnv()
	seedDevisAccepte(env)

	c, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.NoError(t, err)

	for _, target := range []Statut{StatutEnProduction, StatutPrete, StatutEnLivraison, StatutLivree} {
		c, err = env.svc.ChangerStatut(context.Background(), c.ID, target)
		require.NoError(t, err)
		require.Equal(t, target, c.Statut)
	}

	// livrée is terminal
	_, err = env.svc.ChangerStatut(context.Background(), c.ID, StatutAnnulee)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestTransitionsCouvrentLesStatutsLivrables(t *testing.T) {
	// chaque statut autorisant un BL atteint en_livraison via la table
	for statut := range livrableStatuts {
		require.True(t, statut.CanTransition(StatutEnLivraison),
			"statut %s doit atteindre en_livraison", statut)
	}
	require.False(t, StatutEnAttente.CanTransition(StatutEnLivraison))
	require.False(t, StatutEnLivraison.CanTransition(StatutEnLivraison))
}

func TestAnnulationDepuisNonTerminal(t *testing.T) {
	env := newTestEnv()
	seedDevisAccepte(env)

	c, err := env.svc.ConvertirDevis(context.Background(), 1)
	require.NoError(t, err)

	c, err = env.svc.ChangerStatut(context.Background(), c.ID, StatutAnnulee)
	require.NoError(t, err)
	require.Equal(t, StatutAnnulee, c.Statut)
	require.True(t, c.Statut.IsTerminal())
}

func TestCreateCommandeManuelle(t *testing.T) {
	env := newTestEnv()

	c, err := env.svc.Create(context.Background(), CreateCommandeRequest{
		ClientID:     1,
		DateCommande: time.Now(),
		Lignes: []devis.CreateLigneReq{
			{Designation: "Table basse", Quantite: 2, PrixUnitaireHT: 150, TVAPourcentage: 20},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatutEnAttente, c.Statut)
	require.Nil(t, c.DevisID)
	require.InDelta(t, 300.0, c.MontantHT, 0.001)
	require.InDelta(t, 360.0, c.MontantTTC, 0.001)
}

func TestDeleteCommandeOnlyEnAttente(t *testing.T) {
	env := newTestEnv()

	c, err := env.svc.Create(context.Background(), CreateCommandeRequest{
		ClientID:     1,
		DateCommande: time.Now(),
		Lignes:       []devis.CreateLigneReq{{Designation: "Chaise", Quantite: 1, PrixUnitaireHT: 80}},
	})
	require.NoError(t, err)

	_, err = env.svc.ChangerStatut(context.Background(), c.ID, StatutConfirmee)
	require.NoError(t, err)
	require.ErrorIs(t, env.svc.Delete(context.Background(), c.ID), shared.ErrInvalidStatus)
}
