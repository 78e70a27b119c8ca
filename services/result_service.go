package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

// ResultService читает ленту завершённых матчей. Записи создаёт FinishMatch.
type ResultService interface {
	ListResults(ctx context.Context, tournamentID string, limit int) ([]models.MatchResult, error)
	DeleteResult(ctx context.Context, id string) error
}

type resultService struct {
	store repositories.DocumentStore
}

func NewResultService(store repositories.DocumentStore) ResultService {
	return &resultService{store: store}
}

// ListResults returns the newest result first. limit <= 0 means no limit.
func (s *resultService) ListResults(ctx context.Context, tournamentID string, limit int) ([]models.MatchResult, error) {
	var filter *repositories.Filter
	if tournamentID != "" {
		filter = repositories.Where("tournamentId", tournamentID)
	}
	results, err := listRecords[models.MatchResult](ctx, s.store, models.CollectionResults, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].EndTime.After(results[j].EndTime)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *resultService) DeleteResult(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, models.CollectionResults, id); err != nil {
		return storeError(err, ErrNotFound)
	}
	return nil
}
