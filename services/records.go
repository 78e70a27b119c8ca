package services

import (
	"context"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

func getRecord[T any](ctx context.Context, store repositories.DocumentStore, coll models.Collection, id string, notFound error) (*T, error) {
	doc, err := store.Get(ctx, coll, id)
	if err != nil {
		return nil, storeError(err, notFound)
	}
	v, err := repositories.Decode[T](doc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func listRecords[T any](ctx context.Context, store repositories.DocumentStore, coll models.Collection, filter *repositories.Filter) ([]T, error) {
	docs, err := store.ReadOnce(ctx, coll, filter)
	if err != nil {
		return nil, err
	}
	return repositories.DecodeAll[T](docs)
}

func reversed[T any](items []T) []T {
	out := make([]T, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return out
}
