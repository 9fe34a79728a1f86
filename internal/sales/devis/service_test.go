package devis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/shared"
)

type memoryDevisRepo struct {
	devis  map[int64]*Devis
	lignes map[int64][]LigneDevis
	nextID int64
	lineID int64
}

func newMemoryDevisRepo() *memoryDevisRepo {
	return &memoryDevisRepo{devis: make(map[int64]*Devis), lignes: make(map[int64][]LigneDevis)}
}

func (r *memoryDevisRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryDevisRepo) Get(ctx context.Context, id int64) (*Devis, error) {
	d, ok := r.devis[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *d
	cp.Lignes = append([]LigneDevis(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryDevisRepo) GetByWoocommerceQuoteID(ctx context.Context, wcQuoteID int64) (*Devis, error) {
	for _, d := range r.devis {
		if d.WoocommerceQuoteID != nil && *d.WoocommerceQuoteID == wcQuoteID {
			return r.Get(ctx, d.ID)
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryDevisRepo) List(ctx context.Context, req ListDevisRequest) ([]DevisWithClient, int, error) {
	var out []DevisWithClient
	for _, d := range r.devis {
		if req.Statut != nil && d.Statut != *req.Statut {
			continue
		}
		out = append(out, DevisWithClient{Devis: *d})
	}
	return out, len(out), nil
}

func (r *memoryDevisRepo) Create(ctx context.Context, d Devis) (int64, error) {
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.devis[d.ID] = &d
	return d.ID, nil
}

func (r *memoryDevisRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	d, ok := r.devis[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "taux_remise":
			d.TauxRemise = v.(float64)
		case "remise_montant":
			d.RemiseMontant = v.(float64)
		case "montant_ht":
			d.MontantHT = v.(float64)
		case "montant_tva":
			d.MontantTVA = v.(float64)
		case "montant_ttc":
			d.MontantTTC = v.(float64)
		}
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (r *memoryDevisRepo) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	d, ok := r.devis[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Statut = statut
	return nil
}

func (r *memoryDevisRepo) InsertLigne(ctx context.Context, l LigneDevis) (int64, error) {
	r.lineID++
	l.ID = r.lineID
	r.lignes[l.DevisID] = append(r.lignes[l.DevisID], l)
	return l.ID, nil
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
	c, ok := r.clients[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Type = clients.TypeClient
	now := time.Now()
	c.DateDerniereCommande = &now
	return nil
}

func (r *memoryClientsRepo) Delete(ctx context.Context, id int64) error {
	delete(r.clients, id)
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
		numbering.DocDevis:        "DEV",
		numbering.DocCommande:     "CMD",
		numbering.DocBonLivraison: "BL",
		numbering.DocFacture:      "FACT",
		numbering.DocClient:       "CLI",
	}[docType]
	return fmt.Sprintf("%s-%06d", prefix, a.counters[docType]), nil
}

func newTestService() (*Service, *memoryDevisRepo, *memoryClientsRepo) {
	repo := newMemoryDevisRepo()
	clientRepo := &memoryClientsRepo{clients: map[int64]*clients.Client{
		1: {ID: 1, CodeClient: "CLI-000001", RaisonSociale: "Mobilier Atlas", Type: clients.TypeProspect},
	}}
	return NewService(repo, clientRepo, &seqAllocator{}), repo, clientRepo
}

func TestCreateDevisComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes: []CreateLigneReq{
			{Designation: "Bureau chêne", Quantite: 3, PrixUnitaireHT: 100, RemisePourcentage: 10, TVAPourcentage: 20},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "DEV-000001", d.NumeroDevis)
	require.Equal(t, StatutBrouillon, d.Statut)
	require.InDelta(t, 270.0, d.MontantHT, 0.001)
	require.InDelta(t, 54.0, d.MontantTVA, 0.001)
	require.InDelta(t, 324.0, d.MontantTTC, 0.001)
	require.Len(t, d.Lignes, 1)
	require.Equal(t, 1, d.Lignes[0].Ordre)
}

func TestCreateDevisUnknownClient(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  99,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Chaise", Quantite: 1, PrixUnitaireHT: 50}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChangerStatutFollowsLifecycle(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Table", Quantite: 1, PrixUnitaireHT: 200, TVAPourcentage: 20}},
	})
	require.NoError(t, err)

	d, err = svc.ChangerStatut(context.Background(), d.ID, StatutEnvoye)
	require.NoError(t, err)
	require.Equal(t, StatutEnvoye, d.Statut)

	d, err = svc.ChangerStatut(context.Background(), d.ID, StatutAccepte)
	require.NoError(t, err)
	require.Equal(t, StatutAccepte, d.Statut)

	// brouillon is behind us, going back is refused
	_, err = svc.ChangerStatut(context.Background(), d.ID, StatutBrouillon)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestChangerStatutRejectsSkip(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Armoire", Quantite: 1, PrixUnitaireHT: 400}},
	})
	require.NoError(t, err)

	_, err = svc.ChangerStatut(context.Background(), d.ID, StatutAccepte)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestUpdateDevisOnlyBrouillon(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Canapé", Quantite: 2, PrixUnitaireHT: 800, TVAPourcentage: 20}},
	})
	require.NoError(t, err)

	newLignes := []CreateLigneReq{{Designation: "Canapé 3 places", Quantite: 1, PrixUnitaireHT: 1000, TVAPourcentage: 20}}
	updated, err := svc.Update(context.Background(), d.ID, UpdateDevisRequest{Lignes: &newLignes})
	require.NoError(t, err)
	require.InDelta(t, 1000.0, updated.MontantHT, 0.001)
	require.Len(t, updated.Lignes, 1)

	_, err = svc.ChangerStatut(context.Background(), d.ID, StatutEnvoye)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), d.ID, UpdateDevisRequest{Lignes: &newLignes})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestDeleteDevisOnlyBrouillon(t *testing.T) {
	svc, repo, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Etagère", Quantite: 1, PrixUnitaireHT: 120}},
	})
	require.NoError(t, err)

	_, err = svc.ChangerStatut(context.Background(), d.ID, StatutEnvoye)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(context.Background(), d.ID), shared.ErrInvalidStatus)

	d2, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:  1,
		DateDevis: time.Now(),
		Lignes:    []CreateLigneReq{{Designation: "Tabouret", Quantite: 4, PrixUnitaireHT: 30}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), d2.ID))
	_, ok := repo.devis[d2.ID]
	require.False(t, ok)
}

func TestCreateDevisGlobalRemise(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateDevisRequest{
		ClientID:   1,
		DateDevis:  time.Now(),
		TauxRemise: 10,
		Lignes: []CreateLigneReq{
			{Designation: "Lot bureaux", Quantite: 10, PrixUnitaireHT: 100, TVAPourcentage: 20},
		},
	})
	require.NoError(t, err)
	// 1000 HT - 10% = 900, TVA recalculée à 20% = 180
	require.InDelta(t, 900.0, d.MontantHT, 0.001)
	require.InDelta(t, 100.0, d.RemiseMontant, 0.001)
	require.InDelta(t, 180.0, d.MontantTVA, 0.001)
	require.InDelta(t, 1080.0, d.MontantTTC, 0.001)
}
