package clients

import (
	"context"
	"fmt"

	"github.com/Africamobilier/erp/internal/numbering"
)

type Service struct {
	repo    Repository
	numbers numbering.Allocator
}

func NewService(repo Repository, numbers numbering.Allocator) *Service {
	return &Service{repo: repo, numbers: numbers}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	code, err := s.numbers.Next(ctx, numbering.DocClient)
	if err != nil {
		return nil, fmt.Errorf("generate client code: %w", err)
	}

	client := Client{
		CodeClient:    code,
		Type:          req.Type,
		RaisonSociale: req.RaisonSociale,
		NomContact:    req.NomContact,
		Email:         req.Email,
		Telephone:     req.Telephone,
		Mobile:        req.Mobile,
		Adresse:       req.Adresse,
		Ville:         req.Ville,
		CodePostal:    req.CodePostal,
		ICE:           req.ICE,
		RC:            req.RC,
		Patente:       req.Patente,
		Source:        req.Source,
		Notes:         req.Notes,
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	updates := make(map[string]interface{})
	if req.RaisonSociale != nil {
		updates["raison_sociale"] = *req.RaisonSociale
	}
	if req.NomContact != nil {
		updates["nom_contact"] = *req.NomContact
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Telephone != nil {
		updates["telephone"] = *req.Telephone
	}
	if req.Mobile != nil {
		updates["mobile"] = *req.Mobile
	}
	if req.Adresse != nil {
		updates["adresse"] = *req.Adresse
	}
	if req.Ville != nil {
		updates["ville"] = *req.Ville
	}
	if req.CodePostal != nil {
		updates["code_postal"] = *req.CodePostal
	}
	if req.ICE != nil {
		updates["ice"] = *req.ICE
	}
	if req.RC != nil {
		updates["rc"] = *req.RC
	}
	if req.Patente != nil {
		updates["patente"] = *req.Patente
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update client: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
