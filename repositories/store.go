package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrWrite    = errors.New("document write failed")
)

// Fields is a partial record. A nil value removes the field on merge.
type Fields map[string]any

// Filter is a single equality predicate on a top-level string field.
type Filter struct {
	Field string
	Value string
}

func Where(field, value string) *Filter {
	return &Filter{Field: field, Value: value}
}

// Document is one stored record. Data always carries the "id" field too.
type Document struct {
	ID   string
	Data json.RawMessage
}

type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Change описывает запись в коллекцию; подписчики перечитывают снимок.
type Change struct {
	Collection models.Collection `json:"collection"`
	ID         string            `json:"id"`
	Op         ChangeOp          `json:"op"`
}

type ChangeNotifier interface {
	NotifyChange(change Change)
}

// DocumentStore is the keyed per-collection storage used by every service.
type DocumentStore interface {
	// Create generates an id, stamps id and createdAt, and persists record.
	Create(ctx context.Context, coll models.Collection, record any) (string, error)
	// Set writes the full record under id, replacing what was there.
	Set(ctx context.Context, coll models.Collection, id string, record any) error
	// Update merges fields into the record. Siblings are kept.
	Update(ctx context.Context, coll models.Collection, id string, fields Fields) error
	// UpdateSubfield merges fields into the nested object at subpath ("currentMatch", "a/b").
	// It fails with ErrNotFound when the record or the nested object is missing.
	UpdateSubfield(ctx context.Context, coll models.Collection, id, subpath string, fields Fields) error
	// Remove is idempotent.
	Remove(ctx context.Context, coll models.Collection, id string) error
	Get(ctx context.Context, coll models.Collection, id string) (Document, error)
	ReadOnce(ctx context.Context, coll models.Collection, filter *Filter) ([]Document, error)
}

// Decode unmarshals a document into T.
func Decode[T any](doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return v, nil
}

func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToFields converts a struct (or map) into Fields using its JSON shape.
func ToFields(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("record must encode to a JSON object: %w", err)
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

// NewID returns a time-ordered identifier, like push keys of realtime databases.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func validateCollection(coll models.Collection) error {
	if !coll.Valid() {
		return fmt.Errorf("unknown collection %q", coll)
	}
	return nil
}
