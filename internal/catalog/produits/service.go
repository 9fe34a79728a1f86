package produits

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateProduitRequest) (*Produit, error) {
	id, err := s.repo.Create(ctx, Produit{
		CodeProduit:     req.CodeProduit,
		Designation:     req.Designation,
		Description:     req.Description,
		Categorie:       req.Categorie,
		PrixUnitaireHT:  req.PrixUnitaireHT,
		Unite:           req.Unite,
		StockDisponible: req.StockDisponible,
		StockAlerte:     req.StockAlerte,
		Actif:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("create produit: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProduitRequest) (*Produit, error) {
	updates := make(map[string]interface{})
	if req.Designation != nil {
		updates["designation"] = *req.Designation
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Categorie != nil {
		updates["categorie"] = *req.Categorie
	}
	if req.PrixUnitaireHT != nil {
		updates["prix_unitaire_ht"] = *req.PrixUnitaireHT
	}
	if req.Unite != nil {
		updates["unite"] = *req.Unite
	}
	if req.StockDisponible != nil {
		updates["stock_disponible"] = *req.StockDisponible
	}
	if req.StockAlerte != nil {
		updates["stock_alerte"] = *req.StockAlerte
	}
	if req.Actif != nil {
		updates["actif"] = *req.Actif
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update produit: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Produit, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProduitsRequest) ([]Produit, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
