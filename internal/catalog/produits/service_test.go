package produits

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Africamobilier/erp/internal/shared"
)

type memoryProduitsRepo struct {
	produits map[int64]*Produit
	nextID   int64
}

func newMemoryProduitsRepo() *memoryProduitsRepo {
	return &memoryProduitsRepo{produits: make(map[int64]*Produit)}
}

func (r *memoryProduitsRepo) Get(ctx context.Context, id int64) (*Produit, error) {
	p, ok := r.produits[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryProduitsRepo) GetByWoocommerceID(ctx context.Context, wcID int64) (*Produit, error) {
	for _, p := range r.produits {
		if p.WoocommerceID != nil && *p.WoocommerceID == wcID {
			return r.Get(ctx, p.ID)
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryProduitsRepo) List(ctx context.Context, req ListProduitsRequest) ([]Produit, int, error) {
	var out []Produit
	for _, p := range r.produits {
		if req.Actif != nil && p.Actif != *req.Actif {
			continue
		}
		if req.StockFaible && p.StockDisponible > p.StockAlerte {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryProduitsRepo) Create(ctx context.Context, p Produit) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.produits[p.ID] = &p
	return p.ID, nil
}

func (r *memoryProduitsRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	p, ok := r.produits[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "designation":
			p.Designation = v.(string)
		case "prix_unitaire_ht":
			p.PrixUnitaireHT = v.(float64)
		case "stock_disponible":
			p.StockDisponible = v.(int)
		case "actif":
			p.Actif = v.(bool)
		}
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *memoryProduitsRepo) UpsertExterne(ctx context.Context, req UpsertExterneRequest) (int64, bool, error) {
	if existing, err := r.GetByWoocommerceID(ctx, req.WoocommerceID); err == nil {
		p := r.produits[existing.ID]
		p.Designation = req.Designation
		p.PrixUnitaireHT = req.PrixUnitaireHT
		p.StockDisponible = req.StockDisponible
		return existing.ID, false, nil
	}
	id, _ := r.Create(ctx, Produit{
		CodeProduit:     req.CodeProduit,
		Designation:     req.Designation,
		PrixUnitaireHT:  req.PrixUnitaireHT,
		StockDisponible: req.StockDisponible,
		WoocommerceID:   &req.WoocommerceID,
		Actif:           true,
	})
	return id, true, nil
}

func (r *memoryProduitsRepo) Delete(ctx context.Context, id int64) error {
	delete(r.produits, id)
	return nil
}

func TestCreateProduitDefaultsActif(t *testing.T) {
	repo := newMemoryProduitsRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), CreateProduitRequest{
		CodeProduit:     "PRD-000001",
		Designation:     "Bureau chêne massif 160cm",
		PrixUnitaireHT:  4200,
		Unite:           "unité",
		StockDisponible: 12,
		StockAlerte:     3,
	})
	require.NoError(t, err)
	require.True(t, p.Actif)
	require.Equal(t, "PRD-000001", p.CodeProduit)
	require.InDelta(t, 4200.0, p.PrixUnitaireHT, 0.001)
}

func TestUpdateProduitPartial(t *testing.T) {
	repo := newMemoryProduitsRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProduitRequest{
		CodeProduit: "PRD-000002", Designation: "Chaise", PrixUnitaireHT: 1450, Unite: "unité",
	})
	require.NoError(t, err)

	prix := 1390.0
	updated, err := svc.Update(context.Background(), created.ID, UpdateProduitRequest{PrixUnitaireHT: &prix})
	require.NoError(t, err)
	require.InDelta(t, 1390.0, updated.PrixUnitaireHT, 0.001)
	require.Equal(t, "Chaise", updated.Designation)
}

func TestListProduitsStockFaible(t *testing.T) {
	repo := newMemoryProduitsRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateProduitRequest{
		CodeProduit: "PRD-000003", Designation: "Armoire", Unite: "unité",
		StockDisponible: 8, StockAlerte: 2,
	})
	require.NoError(t, err)
	low, err := svc.Create(context.Background(), CreateProduitRequest{
		CodeProduit: "PRD-000004", Designation: "Table réunion", Unite: "unité",
		StockDisponible: 1, StockAlerte: 2,
	})
	require.NoError(t, err)

	items, total, err := svc.List(context.Background(), ListProduitsRequest{StockFaible: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, low.ID, items[0].ID)
}
