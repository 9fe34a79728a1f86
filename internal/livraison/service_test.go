package livraison

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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
	bls          map[int64]*BonLivraison
	lignes       map[int64][]LigneBL
	nextID       int64
	lineID       int64
	commandeRepo *memoryCommandesRepo
}

func newMemoryBLRepo(cr *memoryCommandesRepo) *memoryBLRepo {
	return &memoryBLRepo{bls: make(map[int64]*BonLivraison), lignes: make(map[int64][]LigneBL), commandeRepo: cr}
}

func (r *memoryBLRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryBLRepo) Get(ctx context.Context, id int64) (*BonLivraison, error) {
	bl, ok := r.bls[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *bl
	cp.Lignes = append([]LigneBL(nil), r.lignes[id]...)
	return &cp, nil
}

func (r *memoryBLRepo) List(ctx context.Context, req ListBLRequest) ([]BLWithClient, int, error) {
	var out []BLWithClient
	for _, bl := range r.bls {
		out = append(out, BLWithClient{BonLivraison: *bl})
	}
	return out, len(out), nil
}

func (r *memoryBLRepo) Create(ctx context.Context, bl BonLivraison) (int64, error) {
	r.nextID++
	bl.ID = r.nextID
	bl.CreatedAt = time.Now()
	r.bls[bl.ID] = &bl
	return bl.ID, nil
}

func (r *memoryBLRepo) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	bl, ok := r.bls[id]
	if !ok {
		return shared.ErrNotFound
	}
	bl.Statut = statut
	return nil
}

func (r *memoryBLRepo) UpdateQuantiteLivree(ctx context.Context, ligneID int64, quantite float64) error {
	for blID, lignes := range r.lignes {
		for i, l := range lignes {
			if l.ID == ligneID {
				r.lignes[blID][i].QuantiteLivree = quantite
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (r *memoryBLRepo) InsertLigne(ctx context.Context, l LigneBL) (int64, error) {
	r.lineID++
	l.ID = r.lineID
	r.lignes[l.BLID] = append(r.lignes[l.BLID], l)
	return l.ID, nil
}

func (r *memoryBLRepo) Delete(ctx context.Context, id int64) error {
	delete(r.bls, id)
	delete(r.lignes, id)
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

type seqAllocator struct{ n int64 }

func (a *seqAllocator) Next(ctx context.Context, docType numbering.DocType) (string, error) {
	a.n++
	return fmt.Sprintf("BL-%06d", a.n), nil
}

func newTestEnv() (*Service, *memoryBLRepo, *memoryCommandesRepo) {
	cr := &memoryCommandesRepo{
		commandes: map[int64]*commandes.Commande{
			1: {ID: 1, NumeroCommande: "CMD-000001", ClientID: 1, Statut: commandes.StatutConfirmee,
				MontantHT: 500, MontantTVA: 100, MontantTTC: 600},
		},
		lignes: map[int64][]commandes.LigneCommande{
			1: {
				{ID: 1, CommandeID: 1, Designation: "Bureau chêne", Quantite: 5, PrixUnitaireHT: 100, MontantHT: 500, Ordre: 1},
			},
		},
	}
	repo := newMemoryBLRepo(cr)
	svc := NewService(slog.Default(), repo, cr, &seqAllocator{}, nil)
	return svc, repo, cr
}

func TestCreerDepuisCommande(t *testing.T) {
	svc, _, cr := newTestEnv()

	bl, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
	require.NoError(t, err)
	require.Equal(t, StatutPrepare, bl.Statut)
	require.Equal(t, "BL-000001", bl.NumeroBL)
	require.Len(t, bl.Lignes, 1)
	// default: ship everything ordered
	require.InDelta(t, 5.0, bl.Lignes[0].QuantiteCommandee, 0.001)
	require.InDelta(t, 5.0, bl.Lignes[0].QuantiteLivree, 0.001)

	require.Equal(t, commandes.StatutEnLivraison, cr.commandes[1].Statut)
}

func TestCreerDepuisCommandeStatutsAutorises(t *testing.T) {
	svc, _, cr := newTestEnv()

	for _, statut := range []commandes.Statut{commandes.StatutEnAttente, commandes.StatutLivree, commandes.StatutAnnulee} {
		cr.commandes[1].Statut = statut
		_, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
		require.ErrorIs(t, err, shared.ErrInvalidStatus, "statut %s", statut)
	}

	cr.commandes[1].Statut = commandes.StatutPrete
	_, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
	require.NoError(t, err)
}

func TestCreerDepuisCommandeSansLignes(t *testing.T) {
	svc, _, cr := newTestEnv()
	delete(cr.lignes, 1)

	_, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestChangerStatutLifeycle(t *testing.T) {
	svc, _, _ := newTestEnv()

	bl, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
	require.NoError(t, err)

	_, err = svc.ChangerStatut(context.Background(), bl.ID, StatutLivre)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	bl, err = svc.ChangerStatut(context.Background(), bl.ID, StatutExpedie)
	require.NoError(t, err)
	bl, err = svc.ChangerStatut(context.Background(), bl.ID, StatutLivre)
	require.NoError(t, err)
	require.Equal(t, StatutLivre, bl.Statut)
}

func TestUpdateQuantitesPartielles(t *testing.T) {
	svc, _, _ := newTestEnv()

	bl, err := svc.CreerDepuisCommande(context.Background(), 1, CreerDepuisCommandeRequest{})
	require.NoError(t, err)

	bl, err = svc.UpdateQuantites(context.Background(), bl.ID, UpdateQuantitesRequest{
		Lignes: []QuantiteLigneReq{{LigneID: bl.Lignes[0].ID, QuantiteLivree: 3}},
	})
	require.NoError(t, err)
	require.InDelta(t, 3.0, bl.Lignes[0].QuantiteLivree, 0.001)

	// delivered cannot exceed ordered
	_, err = svc.UpdateQuantites(context.Background(), bl.ID, UpdateQuantitesRequest{
		Lignes: []QuantiteLigneReq{{LigneID: bl.Lignes[0].ID, QuantiteLivree: 9}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	// locked once shipped
	_, err = svc.ChangerStatut(context.Background(), bl.ID, StatutExpedie)
	require.NoError(t, err)
	_, err = svc.UpdateQuantites(context.Background(), bl.ID, UpdateQuantitesRequest{
		Lignes: []QuantiteLigneReq{{LigneID: bl.Lignes[0].ID, QuantiteLivree: 2}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}
