// Package numbering allocates sequential human-readable document numbers.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DocType identifies a numbered document family.
type DocType string

const (
	DocDevis        DocType = "devis"
	DocCommande     DocType = "commande"
	DocBonLivraison DocType = "bon_livraison"
	DocFacture      DocType = "facture"
	DocClient       DocType = "client"
)

var prefixes = map[DocType]string{
	DocDevis:        "DEV",
	DocCommande:     "CMD",
	DocBonLivraison: "BL",
	DocFacture:      "FACT",
	DocClient:       "CLI",
}

// Allocator is the allocation contract consumed by document services.
type Allocator interface {
	Next(ctx context.Context, docType DocType) (string, error)
}

// Service hands out numbers from a store-side atomic counter. Allocation is a
// single upsert, so concurrent callers can never observe the same sequence
// value; the counter row is created lazily on first use.
type Service struct {
	pool *pgxpool.Pool
}

// NewService builds a numbering service backed by the pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Next allocates the next number for docType, formatted as PREFIX-000042.
func (s *Service) Next(ctx context.Context, docType DocType) (string, error) {
	prefix, ok := prefixes[docType]
	if !ok {
		return "", fmt.Errorf("numbering: unknown document type %q", docType)
	}

	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(docType)).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", docType, err)
	}

	return Format(prefix, seq), nil
}

// Seed raises the counter for docType to at least value. Used when migrating
// documents numbered by the legacy read-last-and-increment scheme.
func (s *Service) Seed(ctx context.Context, docType DocType, value int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ($1, $2)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = GREATEST(document_sequences.seq, EXCLUDED.seq)
	`, string(docType), value)
	if err != nil {
		return fmt.Errorf("numbering: seed %s: %w", docType, err)
	}
	return nil
}

// Format renders a document number as prefix plus a six-digit suffix.
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}

// ParseSuffix extracts the numeric suffix of a formatted document number.
// Returns 0 when the number does not carry a parsable suffix.
func ParseSuffix(numero string) int64 {
	idx := strings.LastIndex(numero, "-")
	if idx < 0 || idx == len(numero)-1 {
		return 0
	}
	n, err := strconv.ParseInt(numero[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
