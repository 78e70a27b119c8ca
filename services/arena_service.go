package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

type ArenaService interface {
	CreateArena(ctx context.Context, input ArenaInput) (*models.Arena, error)
	GetArena(ctx context.Context, id string) (*models.Arena, error)
	ListArenas(ctx context.Context) ([]models.Arena, error)
	UpdateArena(ctx context.Context, id string, input ArenaInput) (*models.Arena, error)
	DeleteArena(ctx context.Context, id string) error
}

type ArenaInput struct {
	Name     string          `json:"name"`
	Location *string         `json:"location,omitempty"`
	Courts   []ArenaCourtDef `json:"courts"`
}

// ArenaCourtDef — корт шаблона; id генерируется, если не задан.
type ArenaCourtDef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type arenaService struct {
	store  repositories.DocumentStore
	logger *slog.Logger
}

func NewArenaService(store repositories.DocumentStore, logger *slog.Logger) ArenaService {
	return &arenaService{store: store, logger: logger}
}

func (s *arenaService) CreateArena(ctx context.Context, input ArenaInput) (*models.Arena, error) {
	arena, err := buildArena(input)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Create(ctx, models.CollectionArenas, arena)
	if err != nil {
		return nil, storeError(err, ErrArenaNotFound)
	}
	return s.GetArena(ctx, id)
}

func (s *arenaService) GetArena(ctx context.Context, id string) (*models.Arena, error) {
	return getRecord[models.Arena](ctx, s.store, models.CollectionArenas, id, ErrArenaNotFound)
}

// ListArenas returns arenas sorted by name.
func (s *arenaService) ListArenas(ctx context.Context) ([]models.Arena, error) {
	arenas, err := listRecords[models.Arena](ctx, s.store, models.CollectionArenas, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list arenas: %w", err)
	}
	sort.SliceStable(arenas, func(i, j int) bool {
		return strings.ToLower(arenas[i].Name) < strings.ToLower(arenas[j].Name)
	})
	return arenas, nil
}

// UpdateArena replaces name, location and the court list. Tournaments
// already created from the arena keep their courts.
func (s *arenaService) UpdateArena(ctx context.Context, id string, input ArenaInput) (*models.Arena, error) {
	current, err := s.GetArena(ctx, id)
	if err != nil {
		return nil, err
	}
	arena, err := buildArena(input)
	if err != nil {
		return nil, err
	}
	err = s.store.Update(ctx, models.CollectionArenas, id, repositories.Fields{
		"name":     arena.Name,
		"location": arena.Location,
		"courts":   arena.Courts,
	})
	if err != nil {
		return nil, storeError(err, ErrArenaNotFound)
	}
	arena.ID = id
	arena.CreatedAt = current.CreatedAt
	return &arena, nil
}

func (s *arenaService) DeleteArena(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, models.CollectionArenas, id); err != nil {
		return storeError(err, ErrArenaNotFound)
	}
	return nil
}

func buildArena(input ArenaInput) (models.Arena, error) {
	name := strings.TrimSpace(input.Name)
	if len([]rune(name)) < 2 {
		return models.Arena{}, fmt.Errorf("%w: arena name must have at least 2 characters", ErrValidationFailed)
	}
	if len(input.Courts) == 0 {
		return models.Arena{}, fmt.Errorf("%w: arena needs at least one court", ErrValidationFailed)
	}

	courts := make([]models.ArenaCourt, 0, len(input.Courts))
	for i, c := range input.Courts {
		courtName := strings.TrimSpace(c.Name)
		if courtName == "" {
			return models.Arena{}, fmt.Errorf("%w: court %d has no name", ErrValidationFailed, i+1)
		}
		courtID := c.ID
		if courtID == "" {
			courtID = repositories.NewID()
		}
		courts = append(courts, models.ArenaCourt{ID: courtID, Name: courtName})
	}

	return models.Arena{
		Name:     name,
		Location: trimmedPtr(input.Location),
		Courts:   courts,
	}, nil
}
