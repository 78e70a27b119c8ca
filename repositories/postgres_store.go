package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore keeps all collections in one JSONB table (see db.Migrate).
// Change notifications normally come from the table trigger; notifier is
// only for deployments that fan changes out through another transport.
type PostgresStore struct {
	db       SQLExecutor
	clock    clockwork.Clock
	notifier ChangeNotifier
}

func NewPostgresStore(db SQLExecutor, clock clockwork.Clock) *PostgresStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresStore{db: db, clock: clock}
}

func (s *PostgresStore) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

func (s *PostgresStore) Create(ctx context.Context, coll models.Collection, record any) (string, error) {
	if err := validateCollection(coll); err != nil {
		return "", err
	}
	id := NewID()
	fields, err := prepareRecord(record, id, s.clock.Now())
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s record: %w", ErrWrite, coll, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)`
	if _, err := s.db.ExecContext(ctx, query, string(coll), id, string(data)); err != nil {
		return "", s.handleWriteError(err, coll, id)
	}
	notify(s.notifier, Change{Collection: coll, ID: id, Op: OpCreate})
	return id, nil
}

func (s *PostgresStore) Set(ctx context.Context, coll models.Collection, id string, record any) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	fields, err := ToFields(record)
	if err != nil {
		return err
	}
	fields["id"] = id
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: encode %s/%s: %w", ErrWrite, coll, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()`
	if _, err := s.db.ExecContext(ctx, query, string(coll), id, string(data)); err != nil {
		return s.handleWriteError(err, coll, id)
	}
	notify(s.notifier, Change{Collection: coll, ID: id, Op: OpUpdate})
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, coll models.Collection, id string, fields Fields) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	patch, err := encodePatch(fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET data = jsonb_strip_nulls(data || $3::jsonb), updated_at = now()
		WHERE collection = $1 AND id = $2`
	result, err := s.db.ExecContext(ctx, query, string(coll), id, patch)
	if err != nil {
		return s.handleWriteError(err, coll, id)
	}
	if err := checkAffectedRows(result, ErrNotFound); err != nil {
		return fmt.Errorf("%w: %s/%s", err, coll, id)
	}
	notify(s.notifier, Change{Collection: coll, ID: id, Op: OpUpdate})
	return nil
}

func (s *PostgresStore) UpdateSubfield(ctx context.Context, coll models.Collection, id, subpath string, fields Fields) error {
	path := splitSubpath(subpath)
	if len(path) == 0 {
		return s.Update(ctx, coll, id, fields)
	}
	if err := validateCollection(coll); err != nil {
		return err
	}
	patch, err := encodePatch(fields)
	if err != nil {
		return err
	}

	// Объект по пути должен существовать: запись в удалённый currentMatch
	// не должна его воскрешать.
	query := `
		UPDATE documents
		SET data = jsonb_set(
				data,
				$3::text[],
				jsonb_strip_nulls((data #> $3::text[]) || $4::jsonb),
				false),
			updated_at = now()
		WHERE collection = $1 AND id = $2
		  AND jsonb_typeof(data #> $3::text[]) = 'object'`
	result, err := s.db.ExecContext(ctx, query, string(coll), id, pq.Array(path), patch)
	if err != nil {
		return s.handleWriteError(err, coll, id)
	}
	if err := checkAffectedRows(result, ErrNotFound); err != nil {
		return fmt.Errorf("%w: %s/%s", err, coll, id)
	}
	notify(s.notifier, Change{Collection: coll, ID: id, Op: OpUpdate})
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, coll models.Collection, id string) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	result, err := s.db.ExecContext(ctx, query, string(coll), id)
	if err != nil {
		return s.handleWriteError(err, coll, id)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		notify(s.notifier, Change{Collection: coll, ID: id, Op: OpDelete})
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, coll models.Collection, id string) (Document, error) {
	if err := validateCollection(coll); err != nil {
		return Document{}, err
	}
	query := `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`

	var (
		doc  Document
		data []byte
	)
	err := s.db.QueryRowContext(ctx, query, string(coll), id).Scan(&doc.ID, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
		}
		return Document{}, fmt.Errorf("failed to read %s/%s: %w", coll, id, err)
	}
	doc.Data = data
	return doc, nil
}

func (s *PostgresStore) ReadOnce(ctx context.Context, coll models.Collection, filter *Filter) ([]Document, error) {
	if err := validateCollection(coll); err != nil {
		return nil, err
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []interface{}{string(coll)}
	if filter != nil {
		queryBuilder.WriteString(` AND data ->> $2 = $3`)
		args = append(args, filter.Field, filter.Value)
	}
	queryBuilder.WriteString(` ORDER BY seq ASC`)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var (
			doc  Document
			data []byte
		)
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", coll, err)
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during %s rows iteration: %w", coll, err)
	}
	return docs, nil
}

func (s *PostgresStore) handleWriteError(err error, coll models.Collection, id string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23505": unique_violation — повторный id при Create.
		if pqErr.Code == "23505" {
			return fmt.Errorf("%w: duplicate id %s/%s: %w", ErrWrite, coll, id, err)
		}
	}
	return fmt.Errorf("%w: %s/%s: %w", ErrWrite, coll, id, err)
}

func encodePatch(fields Fields) (string, error) {
	patch, err := ToFields(fields)
	if err != nil {
		return "", err
	}
	delete(patch, "id")
	data, err := json.Marshal(patch)
	if err != nil {
		return "", fmt.Errorf("%w: encode patch: %w", ErrWrite, err)
	}
	return string(data), nil
}
