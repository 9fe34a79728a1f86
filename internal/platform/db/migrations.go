package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate runs all table creation statements. Safe to call multiple times
// due to IF NOT EXISTS clauses.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	logger.Info("running database migrations")

	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: migration failed: %w\nstatement: %s", err, stmt)
		}
	}

	logger.Info("database migrations complete")
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		nom TEXT NOT NULL,
		prenom TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'directeur_general', 'directeur_commercial', 'commercial')),
		actif BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		code_client TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL DEFAULT 'prospect' CHECK (type IN ('prospect', 'client')),
		raison_sociale TEXT NOT NULL,
		nom_contact TEXT,
		email TEXT,
		telephone TEXT,
		mobile TEXT,
		adresse TEXT,
		ville TEXT,
		code_postal TEXT,
		ice TEXT,
		rc TEXT,
		patente TEXT,
		source TEXT NOT NULL DEFAULT 'manuel' CHECK (source IN ('manuel', 'telephone', 'email', 'visite', 'woocommerce')),
		woocommerce_id BIGINT UNIQUE,
		date_derniere_commande TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS produits (
		id BIGSERIAL PRIMARY KEY,
		code_produit TEXT NOT NULL UNIQUE,
		designation TEXT NOT NULL,
		description TEXT,
		categorie TEXT,
		prix_unitaire_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		unite TEXT NOT NULL DEFAULT 'unité',
		stock_disponible INTEGER NOT NULL DEFAULT 0,
		stock_alerte INTEGER NOT NULL DEFAULT 0,
		woocommerce_id BIGINT UNIQUE,
		image_url TEXT,
		actif BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS devis (
		id BIGSERIAL PRIMARY KEY,
		numero_devis TEXT NOT NULL UNIQUE,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		date_devis TIMESTAMPTZ NOT NULL,
		date_validite TIMESTAMPTZ,
		statut TEXT NOT NULL DEFAULT 'brouillon',
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		taux_remise DOUBLE PRECISION NOT NULL DEFAULT 0,
		remise_montant DOUBLE PRECISION NOT NULL DEFAULT 0,
		conditions_paiement TEXT,
		delai_livraison TEXT,
		notes TEXT,
		woocommerce_quote_id BIGINT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS lignes_devis (
		id BIGSERIAL PRIMARY KEY,
		devis_id BIGINT NOT NULL REFERENCES devis(id) ON DELETE CASCADE,
		produit_id BIGINT REFERENCES produits(id) ON DELETE SET NULL,
		designation TEXT NOT NULL,
		description TEXT,
		quantite DOUBLE PRECISION NOT NULL,
		prix_unitaire_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		remise_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		tva_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 20,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		ordre INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS commandes (
		id BIGSERIAL PRIMARY KEY,
		numero_commande TEXT NOT NULL UNIQUE,
		devis_id BIGINT REFERENCES devis(id),
		client_id BIGINT NOT NULL REFERENCES clients(id),
		date_commande TIMESTAMPTZ NOT NULL,
		date_livraison_prevue TIMESTAMPTZ,
		statut TEXT NOT NULL DEFAULT 'en_attente',
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		taux_remise DOUBLE PRECISION NOT NULL DEFAULT 0,
		remise_montant DOUBLE PRECISION NOT NULL DEFAULT 0,
		conditions_paiement TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS lignes_commandes (
		id BIGSERIAL PRIMARY KEY,
		commande_id BIGINT NOT NULL REFERENCES commandes(id) ON DELETE CASCADE,
		produit_id BIGINT REFERENCES produits(id) ON DELETE SET NULL,
		designation TEXT NOT NULL,
		description TEXT,
		quantite DOUBLE PRECISION NOT NULL,
		prix_unitaire_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		remise_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		tva_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 20,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		ordre INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS bons_livraison (
		id BIGSERIAL PRIMARY KEY,
		numero_bl TEXT NOT NULL UNIQUE,
		commande_id BIGINT REFERENCES commandes(id),
		client_id BIGINT NOT NULL REFERENCES clients(id),
		date_livraison TIMESTAMPTZ NOT NULL,
		statut TEXT NOT NULL DEFAULT 'préparé',
		adresse_livraison TEXT,
		transporteur TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS lignes_bl (
		id BIGSERIAL PRIMARY KEY,
		bl_id BIGINT NOT NULL REFERENCES bons_livraison(id) ON DELETE CASCADE,
		produit_id BIGINT REFERENCES produits(id) ON DELETE SET NULL,
		designation TEXT NOT NULL,
		quantite_commandee DOUBLE PRECISION NOT NULL,
		quantite_livree DOUBLE PRECISION NOT NULL,
		ordre INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS factures (
		id BIGSERIAL PRIMARY KEY,
		numero_facture TEXT NOT NULL UNIQUE,
		commande_id BIGINT REFERENCES commandes(id),
		bl_id BIGINT REFERENCES bons_livraison(id),
		client_id BIGINT NOT NULL REFERENCES clients(id),
		date_facture TIMESTAMPTZ NOT NULL,
		date_echeance TIMESTAMPTZ NOT NULL,
		statut TEXT NOT NULL DEFAULT 'brouillon',
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_paye DOUBLE PRECISION NOT NULL DEFAULT 0,
		solde_restant DOUBLE PRECISION NOT NULL DEFAULT 0,
		conditions_paiement TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS lignes_factures (
		id BIGSERIAL PRIMARY KEY,
		facture_id BIGINT NOT NULL REFERENCES factures(id) ON DELETE CASCADE,
		produit_id BIGINT REFERENCES produits(id) ON DELETE SET NULL,
		designation TEXT NOT NULL,
		description TEXT,
		quantite DOUBLE PRECISION NOT NULL,
		prix_unitaire_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		remise_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ht DOUBLE PRECISION NOT NULL DEFAULT 0,
		tva_pourcentage DOUBLE PRECISION NOT NULL DEFAULT 20,
		montant_tva DOUBLE PRECISION NOT NULL DEFAULT 0,
		montant_ttc DOUBLE PRECISION NOT NULL DEFAULT 0,
		ordre INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS paiements (
		id BIGSERIAL PRIMARY KEY,
		facture_id BIGINT NOT NULL REFERENCES factures(id) ON DELETE CASCADE,
		montant DOUBLE PRECISION NOT NULL CHECK (montant > 0),
		date_paiement TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		mode_paiement TEXT NOT NULL CHECK (mode_paiement IN ('virement', 'chèque', 'espèces', 'carte')),
		reference TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS woocommerce_config (
		id BIGSERIAL PRIMARY KEY,
		site_url TEXT NOT NULL UNIQUE,
		consumer_key TEXT NOT NULL,
		consumer_secret TEXT NOT NULL,
		actif BOOLEAN NOT NULL DEFAULT TRUE,
		derniere_sync TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS sync_logs (
		id BIGSERIAL PRIMARY KEY,
		type_sync TEXT NOT NULL,
		statut TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS document_sequences (
		doc_type TEXT PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id BIGINT NOT NULL DEFAULT 0,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_devis_client ON devis(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_commandes_client ON commandes(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_factures_client ON factures(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_factures_statut ON factures(statut)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity, entity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_logs_created ON sync_logs(created_at)`,
}
