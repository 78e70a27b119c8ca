package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

// courtFanoutLimit ограничивает число одновременных записей кортов.
const courtFanoutLimit = 8

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*TournamentCreation, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id string) error
	PreviousAtLocation(ctx context.Context, location string) ([]models.Tournament, error)
}

type CreateTournamentInput struct {
	Name     string  `json:"name"`
	Date     string  `json:"date"`
	Time     *string `json:"time,omitempty"`
	Location *string `json:"location,omitempty"`
	ArenaID  *string `json:"arenaId,omitempty"`
}

type UpdateTournamentInput struct {
	Name     *string `json:"name,omitempty"`
	Date     *string `json:"date,omitempty"`
	Time     *string `json:"time,omitempty"`
	Location *string `json:"location,omitempty"`
}

// TournamentCreation holds the tournament and the courts cloned from its
// arena. Courts lists only the courts that were written.
type TournamentCreation struct {
	Tournament models.Tournament `json:"tournament"`
	Courts     []models.Court    `json:"courts"`
}

type tournamentService struct {
	store  repositories.DocumentStore
	pins   PinGenerator
	logger *slog.Logger
}

func NewTournamentService(store repositories.DocumentStore, pins PinGenerator, logger *slog.Logger) TournamentService {
	if pins == nil {
		pins = RandomPin
	}
	return &tournamentService{
		store:  store,
		pins:   pins,
		logger: logger,
	}
}

// CreateTournament writes the tournament and, when an arena is given, one
// free court per arena court. Court writes run concurrently and are all
// attempted; failures come back as a *PartialWriteError next to the courts
// that were created.
func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*TournamentCreation, error) {
	name := strings.TrimSpace(input.Name)
	if len([]rune(name)) < 3 {
		return nil, fmt.Errorf("%w: tournament name must have at least 3 characters", ErrValidationFailed)
	}
	if err := validateDate(input.Date); err != nil {
		return nil, err
	}
	clock := trimmedPtr(input.Time)
	if err := validateClock(clock); err != nil {
		return nil, err
	}

	var arena *models.Arena
	arenaID := trimmedPtr(input.ArenaID)
	if arenaID != nil {
		a, err := getRecord[models.Arena](ctx, s.store, models.CollectionArenas, *arenaID, ErrArenaNotFound)
		if err != nil {
			return nil, err
		}
		arena = a
	}

	location := trimmedPtr(input.Location)
	if location == nil && arena != nil {
		location = trimmedPtr(arena.Location)
	}

	tournament := models.Tournament{
		Name:     name,
		Date:     input.Date,
		Time:     clock,
		Status:   models.TournamentStatusPlanning,
		Location: location,
		ArenaID:  arenaID,
	}
	id, err := s.store.Create(ctx, models.CollectionTournaments, tournament)
	if err != nil {
		return nil, storeError(err, ErrTournamentNotFound)
	}
	// createdAt проставляет хранилище; перечитываем, чтобы вернуть его.
	if stored, err := s.GetTournament(ctx, id); err == nil {
		tournament = *stored
	} else {
		tournament.ID = id
	}

	creation := &TournamentCreation{Tournament: tournament, Courts: []models.Court{}}
	if arena == nil || len(arena.Courts) == 0 {
		return creation, nil
	}

	courts, err := s.cloneArenaCourts(ctx, id, arena.Courts)
	creation.Courts = courts
	if err != nil {
		s.logger.WarnContext(ctx, "tournament courts partially created",
			slog.String("tournament_id", id), slog.Int("created", len(courts)),
			slog.Int("requested", len(arena.Courts)), slog.Any("error", err))
		return creation, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", id), slog.Int("courts", len(courts)))
	return creation, nil
}

func (s *tournamentService) cloneArenaCourts(ctx context.Context, tournamentID string, templates []models.ArenaCourt) ([]models.Court, error) {
	alloc, err := newPinAllocator(ctx, s.store, s.pins)
	if err != nil {
		return nil, err
	}

	// PIN резервируются последовательно до запуска записей.
	planned := make([]models.Court, len(templates))
	for i, tpl := range templates {
		pin, err := alloc.next()
		if err != nil {
			return nil, err
		}
		planned[i] = models.Court{
			Name:         tpl.Name,
			Status:       models.CourtStatusFree,
			Pin:          pin,
			TournamentID: tournamentID,
		}
	}

	var mu sync.Mutex
	created := make([]bool, len(planned))
	steps := make([]sagaStep, len(planned))
	for i := range planned {
		steps[i] = sagaStep{
			name: fmt.Sprintf("court %q", planned[i].Name),
			run: func(ctx context.Context) error {
				id, err := s.store.Create(ctx, models.CollectionCourts, planned[i])
				if err != nil {
					return err
				}
				mu.Lock()
				planned[i].ID = id
				created[i] = true
				mu.Unlock()
				return nil
			},
		}
	}
	sagaErr := runSaga(ctx, "create tournament courts", courtFanoutLimit, steps)

	courts := make([]models.Court, 0, len(planned))
	for i, c := range planned {
		if created[i] {
			courts = append(courts, c)
		}
	}
	return courts, sagaErr
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return getRecord[models.Tournament](ctx, s.store, models.CollectionTournaments, id, ErrTournamentNotFound)
}

// ListTournaments returns the newest tournament first.
func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := listRecords[models.Tournament](ctx, s.store, models.CollectionTournaments, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return reversed(tournaments), nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := repositories.Fields{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len([]rune(name)) < 3 {
			return nil, fmt.Errorf("%w: tournament name must have at least 3 characters", ErrValidationFailed)
		}
		tournament.Name = name
		fields["name"] = name
	}
	if input.Date != nil {
		if err := validateDate(*input.Date); err != nil {
			return nil, err
		}
		tournament.Date = *input.Date
		fields["date"] = *input.Date
	}
	if input.Time != nil {
		clock := trimmedPtr(input.Time)
		if err := validateClock(clock); err != nil {
			return nil, err
		}
		tournament.Time = clock
		fields["time"] = clock
	}
	if input.Location != nil {
		tournament.Location = trimmedPtr(input.Location)
		fields["location"] = tournament.Location
	}
	if len(fields) == 0 {
		return tournament, nil
	}

	if err := s.store.Update(ctx, models.CollectionTournaments, id, fields); err != nil {
		return nil, storeError(err, ErrTournamentNotFound)
	}
	return tournament, nil
}

func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidationFailed, status)
	}
	tournament, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isValidTournamentTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTournamentTransition, tournament.Status, status)
	}
	if tournament.Status == status {
		return tournament, nil
	}

	if err := s.store.Update(ctx, models.CollectionTournaments, id, repositories.Fields{"status": status}); err != nil {
		return nil, storeError(err, ErrTournamentNotFound)
	}
	tournament.Status = status
	s.logger.InfoContext(ctx, "tournament status changed",
		slog.String("tournament_id", id), slog.String("status", string(status)))
	return tournament, nil
}

// DeleteTournament removes the tournament record only. Its courts and
// matches stay in place, as with any other single-record delete.
func (s *tournamentService) DeleteTournament(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, models.CollectionTournaments, id); err != nil {
		return storeError(err, ErrTournamentNotFound)
	}
	return nil
}

// PreviousAtLocation lists earlier tournaments held at the same location,
// newest first.
func (s *tournamentService) PreviousAtLocation(ctx context.Context, location string) ([]models.Tournament, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrValidationFailed)
	}
	tournaments, err := listRecords[models.Tournament](ctx, s.store, models.CollectionTournaments, repositories.Where("location", location))
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments at %s: %w", location, err)
	}
	return reversed(tournaments), nil
}
