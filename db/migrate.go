package db

import (
	"context"
	"database/sql"
	"fmt"
)

// ChangeChannel is the LISTEN/NOTIFY channel fed by the documents trigger.
const ChangeChannel = "document_changes"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		seq        BIGSERIAL,
		data       JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS documents_tournament_idx
		ON documents (collection, (data ->> 'tournamentId'))`,
	`CREATE INDEX IF NOT EXISTS documents_pin_idx
		ON documents ((data ->> 'pin')) WHERE collection = 'courts'`,
	`CREATE OR REPLACE FUNCTION notify_document_change() RETURNS trigger AS $$
	DECLARE
		rec RECORD;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := OLD;
		ELSE
			rec := NEW;
		END IF;
		PERFORM pg_notify('` + ChangeChannel + `', json_build_object(
			'collection', rec.collection,
			'id', rec.id,
			'op', CASE TG_OP WHEN 'INSERT' THEN 'create' ELSE lower(TG_OP) END)::text);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS documents_notify ON documents`,
	`CREATE TRIGGER documents_notify
		AFTER INSERT OR UPDATE OR DELETE ON documents
		FOR EACH ROW EXECUTE FUNCTION notify_document_change()`,
}

// Migrate creates the documents table and its change trigger. Idempotent.
func Migrate(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
