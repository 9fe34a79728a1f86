package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Africamobilier/erp/internal/platform/db"
	"github.com/Africamobilier/erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository interface {
	Get(ctx context.Context, id int64) (*Utilisateur, error)
	GetByEmail(ctx context.Context, email string) (*Utilisateur, error)
	List(ctx context.Context) ([]Utilisateur, error)
	Create(ctx context.Context, u Utilisateur) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, email, nom, prenom, role, actif, password_hash, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Utilisateur, error) {
	return scanUtilisateur(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Utilisateur, error) {
	return scanUtilisateur(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM profiles WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *repository) List(ctx context.Context) ([]Utilisateur, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM profiles ORDER BY nom, prenom`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Utilisateur
	for rows.Next() {
		var u Utilisateur
		if err := rows.Scan(&u.ID, &u.Email, &u.Nom, &u.Prenom, &u.Role, &u.Actif,
			&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, u Utilisateur) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (email, nom, prenom, role, actif, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Email, u.Nom, u.Prenom, u.Role, u.Actif, u.PasswordHash).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "profiles_email_key") {
			return 0, fmt.Errorf("email déjà utilisé: %w", shared.ErrValidation)
		}
		return 0, err
	}
	return id, nil
}

var updatableColumns = map[string]struct{}{
	"nom": {}, "prenom": {}, "role": {}, "actif": {},
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE profiles SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for col, v := range updates {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("users: column %q not updatable", col)
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUtilisateur(row pgx.Row) (*Utilisateur, error) {
	var u Utilisateur
	err := row.Scan(&u.ID, &u.Email, &u.Nom, &u.Prenom, &u.Role, &u.Actif,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
