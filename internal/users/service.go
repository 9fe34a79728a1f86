package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Africamobilier/erp/internal/rbac"
	"github.com/Africamobilier/erp/internal/shared"
)

// Service handles account management and credential checks.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Utilisateur, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Utilisateur, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateUtilisateurRequest) (*Utilisateur, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, Utilisateur{
		Email:        req.Email,
		Nom:          req.Nom,
		Prenom:       req.Prenom,
		Role:         rbac.Role(req.Role),
		Actif:        true,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("create utilisateur: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateUtilisateurRequest) (*Utilisateur, error) {
	updates := make(map[string]interface{})
	if req.Nom != nil {
		updates["nom"] = *req.Nom
	}
	if req.Prenom != nil {
		updates["prenom"] = *req.Prenom
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Actif != nil {
		updates["actif"] = *req.Actif
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update utilisateur %d: %w", id, err)
		}
	}
	return s.repo.Get(ctx, id)
}

// ChangePassword replaces the account's credential. The previous hash is
// discarded.
func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}

// Authenticate checks email/password credentials against the stored hash.
// Unknown accounts, inactive accounts and wrong passwords are all reported as
// the same forbidden error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Utilisateur, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrForbidden
	}
	if !u.Actif {
		return nil, shared.ErrForbidden
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrForbidden
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
