package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

// CourtSnapshots is the latest known view of courts (see live.CourtMirror).
// Apply records a write the store has acknowledged, so the next read of the
// view already sees it.
type CourtSnapshots interface {
	Court(id string) (models.Court, bool)
	Apply(id string, update func(*models.Court))
}

type CourtService interface {
	CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error)
	GetCourt(ctx context.Context, id string) (*models.Court, error)
	ListCourts(ctx context.Context, tournamentID string) ([]models.Court, error)
	DeleteCourt(ctx context.Context, id string) error
	RegeneratePin(ctx context.Context, id string) (*models.Court, error)

	SetScore(ctx context.Context, courtID string, side models.ScoreSide, delta int) (*models.Court, error)
	ResetScore(ctx context.Context, courtID string) (*models.Court, error)
	TogglePause(ctx context.Context, courtID string) (*models.Court, error)
	SetMaintenance(ctx context.Context, courtID string) (*models.Court, error)
	ClearMaintenance(ctx context.Context, courtID string) (*models.Court, error)
}

// MaxScoreDelta bounds a single score change in either direction.
const MaxScoreDelta = 10

type CreateCourtInput struct {
	Name         string `json:"name"`
	TournamentID string `json:"tournamentId"`
}

type courtService struct {
	store     repositories.DocumentStore
	snapshots CourtSnapshots
	pins      PinGenerator
	logger    *slog.Logger
}

// NewCourtService builds the court mutation gateway. snapshots may be nil,
// in which case every operation reads the court fresh from the store.
func NewCourtService(store repositories.DocumentStore, snapshots CourtSnapshots, pins PinGenerator, logger *slog.Logger) CourtService {
	if pins == nil {
		pins = RandomPin
	}
	return &courtService{
		store:     store,
		snapshots: snapshots,
		pins:      pins,
		logger:    logger,
	}
}

func (s *courtService) CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error) {
	name := strings.TrimSpace(input.Name)
	if len([]rune(name)) < 2 {
		return nil, fmt.Errorf("%w: court name must have at least 2 characters", ErrValidationFailed)
	}
	if input.TournamentID == "" {
		return nil, fmt.Errorf("%w: tournamentId is required", ErrValidationFailed)
	}
	if _, err := getRecord[models.Tournament](ctx, s.store, models.CollectionTournaments, input.TournamentID, ErrTournamentNotFound); err != nil {
		return nil, err
	}

	alloc, err := newPinAllocator(ctx, s.store, s.pins)
	if err != nil {
		return nil, err
	}
	pin, err := alloc.next()
	if err != nil {
		return nil, err
	}

	court := models.Court{
		Name:         name,
		Status:       models.CourtStatusFree,
		Pin:          pin,
		TournamentID: input.TournamentID,
	}
	id, err := s.store.Create(ctx, models.CollectionCourts, court)
	if err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}
	court.ID = id
	s.logger.InfoContext(ctx, "court created",
		slog.String("court_id", id), slog.String("tournament_id", input.TournamentID))
	return &court, nil
}

func (s *courtService) GetCourt(ctx context.Context, id string) (*models.Court, error) {
	return s.fetch(ctx, id)
}

func (s *courtService) ListCourts(ctx context.Context, tournamentID string) ([]models.Court, error) {
	var filter *repositories.Filter
	if tournamentID != "" {
		filter = repositories.Where("tournamentId", tournamentID)
	}
	courts, err := listRecords[models.Court](ctx, s.store, models.CollectionCourts, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}

func (s *courtService) DeleteCourt(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, models.CollectionCourts, id); err != nil {
		return storeError(err, ErrCourtNotFound)
	}
	return nil
}

func (s *courtService) RegeneratePin(ctx context.Context, id string) (*models.Court, error) {
	court, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	alloc, err := newPinAllocator(ctx, s.store, s.pins)
	if err != nil {
		return nil, err
	}
	pin, err := alloc.next()
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, models.CollectionCourts, id, repositories.Fields{"pin": pin}); err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}
	court.Pin = pin
	s.remember(id, func(c *models.Court) { c.Pin = pin })
	return court, nil
}

// SetScore computes the new score from the latest known snapshot, not from
// a fresh read, and writes only that score field. Two referees racing on the
// same court can overwrite each other: last write wins. Writes made through
// this service are in the snapshot before SetScore returns.
func (s *courtService) SetScore(ctx context.Context, courtID string, side models.ScoreSide, delta int) (*models.Court, error) {
	field, ok := side.Field()
	if !ok {
		return nil, fmt.Errorf("%w: team must be A or B", ErrValidationFailed)
	}
	if delta < -MaxScoreDelta || delta > MaxScoreDelta {
		return nil, fmt.Errorf("%w: delta must be within ±%d", ErrValidationFailed, MaxScoreDelta)
	}
	court, err := s.latest(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if !hasLiveMatch(court) {
		// Снимок мог не успеть увидеть старт матча.
		if court, err = s.fetch(ctx, courtID); err != nil {
			return nil, err
		}
	}
	if !hasLiveMatch(court) {
		s.logger.DebugContext(ctx, "score change ignored, no live match",
			slog.String("court_id", courtID), slog.String("status", string(court.Status)))
		return court, nil
	}

	current := court.CurrentMatch.Score(side)
	next := max(0, current+delta)
	if next == current {
		return court, nil
	}
	err = s.store.UpdateSubfield(ctx, models.CollectionCourts, courtID, "currentMatch", repositories.Fields{field: next})
	if errors.Is(err, repositories.ErrNotFound) {
		// Матч закончился после того, как был сделан снимок.
		return s.ignoredScore(ctx, courtID)
	}
	if err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}

	setScore := func(c *models.Court) {
		if c.CurrentMatch == nil {
			return
		}
		if side == models.SideA {
			c.CurrentMatch.ScoreA = next
		} else {
			c.CurrentMatch.ScoreB = next
		}
	}
	setScore(court)
	s.remember(courtID, setScore)
	return court, nil
}

// ResetScore zeroes both scores whatever they were. A court without a
// live match is left untouched.
func (s *courtService) ResetScore(ctx context.Context, courtID string) (*models.Court, error) {
	court, err := s.fetch(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if !hasLiveMatch(court) {
		return court, nil
	}
	err = s.store.UpdateSubfield(ctx, models.CollectionCourts, courtID, "currentMatch", repositories.Fields{
		"scoreA": 0,
		"scoreB": 0,
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return s.ignoredScore(ctx, courtID)
	}
	if err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}
	reset := func(c *models.Court) {
		if c.CurrentMatch != nil {
			c.CurrentMatch.ScoreA = 0
			c.CurrentMatch.ScoreB = 0
		}
	}
	reset(court)
	s.remember(courtID, reset)
	return court, nil
}

// TogglePause flips in_play and paused. Free and maintenance courts are
// returned unchanged.
func (s *courtService) TogglePause(ctx context.Context, courtID string) (*models.Court, error) {
	court, err := s.fetch(ctx, courtID)
	if err != nil {
		return nil, err
	}

	var event CourtEvent
	switch court.Status {
	case models.CourtStatusInPlay:
		event = CourtEventPause
	case models.CourtStatusPaused:
		event = CourtEventResume
	default:
		return court, nil
	}
	next, err := NextCourtStatus(court.Status, event)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, models.CollectionCourts, courtID, repositories.Fields{"status": next}); err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}
	court.Status = next
	s.remember(courtID, func(c *models.Court) { c.Status = next })
	return court, nil
}

func (s *courtService) SetMaintenance(ctx context.Context, courtID string) (*models.Court, error) {
	return s.transition(ctx, courtID, CourtEventMaintenance)
}

func (s *courtService) ClearMaintenance(ctx context.Context, courtID string) (*models.Court, error) {
	return s.transition(ctx, courtID, CourtEventRelease)
}

func (s *courtService) transition(ctx context.Context, courtID string, event CourtEvent) (*models.Court, error) {
	court, err := s.fetch(ctx, courtID)
	if err != nil {
		return nil, err
	}
	next, err := NextCourtStatus(court.Status, event)
	if err != nil {
		return nil, err
	}
	fields := repositories.Fields{"status": next, "currentMatch": nil}
	if err := s.store.Update(ctx, models.CollectionCourts, courtID, fields); err != nil {
		return nil, storeError(err, ErrCourtNotFound)
	}
	court.Status = next
	court.CurrentMatch = nil
	s.remember(courtID, func(c *models.Court) {
		c.Status = next
		c.CurrentMatch = nil
	})
	s.logger.InfoContext(ctx, "court status changed",
		slog.String("court_id", courtID), slog.String("event", string(event)), slog.String("status", string(next)))
	return court, nil
}

func (s *courtService) latest(ctx context.Context, id string) (*models.Court, error) {
	if s.snapshots != nil {
		if c, ok := s.snapshots.Court(id); ok {
			return &c, nil
		}
	}
	return s.fetch(ctx, id)
}

// ignoredScore reports a score write that found no match on the court.
func (s *courtService) ignoredScore(ctx context.Context, courtID string) (*models.Court, error) {
	s.logger.DebugContext(ctx, "score change ignored, match already closed", slog.String("court_id", courtID))
	return s.fetch(ctx, courtID)
}

func (s *courtService) remember(courtID string, update func(*models.Court)) {
	if s.snapshots != nil {
		s.snapshots.Apply(courtID, update)
	}
}

func hasLiveMatch(c *models.Court) bool {
	return c.Status.Live() && c.CurrentMatch != nil
}

func (s *courtService) fetch(ctx context.Context, id string) (*models.Court, error) {
	return getRecord[models.Court](ctx, s.store, models.CollectionCourts, id, ErrCourtNotFound)
}
