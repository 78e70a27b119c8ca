package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/jonboulle/clockwork"
)

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListMatchesByTournament(ctx context.Context, tournamentID string) ([]models.Match, error)
	UpdateMatch(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id string) error

	StartMatch(ctx context.Context, matchID, courtID string) (*models.Court, error)
	FinishMatch(ctx context.Context, courtID string) (*models.MatchResult, error)
}

// TeamInput ссылается на игроков по id; в матч попадают их копии.
type TeamInput struct {
	Player1ID string  `json:"player1Id"`
	Player2ID *string `json:"player2Id,omitempty"`
}

type CreateMatchInput struct {
	TournamentID string    `json:"tournamentId"`
	CourtID      *string   `json:"courtId,omitempty"`
	TeamA        TeamInput `json:"teamA"`
	TeamB        TeamInput `json:"teamB"`
}

// UpdateMatchInput is accepted only while the match is planned.
type UpdateMatchInput struct {
	CourtID *string    `json:"courtId,omitempty"`
	TeamA   *TeamInput `json:"teamA,omitempty"`
	TeamB   *TeamInput `json:"teamB,omitempty"`
}

type matchService struct {
	store  repositories.DocumentStore
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewMatchService(store repositories.DocumentStore, clock clockwork.Clock, logger *slog.Logger) MatchService {
	return &matchService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.TournamentID == "" {
		return nil, fmt.Errorf("%w: tournamentId is required", ErrValidationFailed)
	}
	if _, err := getRecord[models.Tournament](ctx, s.store, models.CollectionTournaments, input.TournamentID, ErrTournamentNotFound); err != nil {
		return nil, err
	}
	courtID := trimmedPtr(input.CourtID)
	if err := s.checkCourt(ctx, courtID, input.TournamentID); err != nil {
		return nil, err
	}

	teamA, teamB, err := s.resolveTeams(ctx, input.TeamA, input.TeamB)
	if err != nil {
		return nil, err
	}

	match := models.Match{
		TournamentID: input.TournamentID,
		CourtID:      courtID,
		TeamA:        teamA,
		TeamB:        teamB,
		Status:       models.MatchStatusPlanned,
	}
	id, err := s.store.Create(ctx, models.CollectionMatches, match)
	if err != nil {
		return nil, storeError(err, ErrMatchNotFound)
	}
	match.ID = id
	return &match, nil
}

func (s *matchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	return getRecord[models.Match](ctx, s.store, models.CollectionMatches, id, ErrMatchNotFound)
}

// ListMatchesByTournament returns the newest match first.
func (s *matchService) ListMatchesByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	matches, err := listRecords[models.Match](ctx, s.store, models.CollectionMatches, repositories.Where("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	return reversed(matches), nil
}

func (s *matchService) UpdateMatch(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error) {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPlanned {
		return nil, fmt.Errorf("%w: only planned matches can be edited", ErrInvalidMatchTransition)
	}

	fields := repositories.Fields{}
	if input.CourtID != nil {
		courtID := trimmedPtr(input.CourtID)
		if err := s.checkCourt(ctx, courtID, match.TournamentID); err != nil {
			return nil, err
		}
		match.CourtID = courtID
		fields["courtId"] = courtID
	}
	if input.TeamA != nil || input.TeamB != nil {
		a, b := teamInputOf(match.TeamA), teamInputOf(match.TeamB)
		if input.TeamA != nil {
			a = *input.TeamA
		}
		if input.TeamB != nil {
			b = *input.TeamB
		}
		teamA, teamB, err := s.resolveTeams(ctx, a, b)
		if err != nil {
			return nil, err
		}
		match.TeamA, match.TeamB = teamA, teamB
		fields["teamA"] = teamA
		fields["teamB"] = teamB
	}
	if len(fields) == 0 {
		return match, nil
	}

	if err := s.store.Update(ctx, models.CollectionMatches, id, fields); err != nil {
		return nil, storeError(err, ErrMatchNotFound)
	}
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id string) error {
	match, err := s.GetMatch(ctx, id)
	if errors.Is(err, ErrMatchNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if match.Status == models.MatchStatusOngoing {
		return fmt.Errorf("%w: finish the match before deleting it", ErrInvalidMatchTransition)
	}
	if err := s.store.Remove(ctx, models.CollectionMatches, id); err != nil {
		return storeError(err, ErrMatchNotFound)
	}
	return nil
}

// StartMatch puts a planned match on a free court. The court is written
// first; repeating the call after a failed match write completes it.
func (s *matchService) StartMatch(ctx context.Context, matchID, courtID string) (*models.Court, error) {
	court, err := getRecord[models.Court](ctx, s.store, models.CollectionCourts, courtID, ErrCourtNotFound)
	if err != nil {
		return nil, err
	}
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.TournamentID != court.TournamentID {
		return nil, ErrCourtTournamentMismatch
	}

	alreadyOnCourt := court.Status.Live() && court.CurrentMatch != nil && court.CurrentMatch.ID == matchID
	switch {
	case match.Status == models.MatchStatusOngoing && derefString(match.CourtID) == courtID && alreadyOnCourt:
		return court, nil
	case !isValidMatchTransition(match.Status, models.MatchStatusOngoing):
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidMatchTransition, match.Status, models.MatchStatusOngoing)
	}

	now := s.clock.Now().UTC()
	if !alreadyOnCourt {
		next, err := NextCourtStatus(court.Status, CourtEventStart)
		if err != nil {
			return nil, err
		}
		current := models.SnapshotMatch(*match)
		current.Status = models.MatchStatusOngoing
		current.CourtID = &courtID
		current.StartTime = &now
		current.ScoreA, current.ScoreB = 0, 0

		err = s.store.Update(ctx, models.CollectionCourts, courtID, repositories.Fields{
			"status":       next,
			"currentMatch": current,
		})
		if err != nil {
			return nil, storeError(err, ErrCourtNotFound)
		}
		court.Status = next
		court.CurrentMatch = &current
	} else if court.CurrentMatch.StartTime != nil {
		now = *court.CurrentMatch.StartTime
	}

	err = s.store.Update(ctx, models.CollectionMatches, matchID, repositories.Fields{
		"status":    models.MatchStatusOngoing,
		"courtId":   courtID,
		"startTime": now,
		"scoreA":    0,
		"scoreB":    0,
	})
	if err != nil {
		return nil, storeError(err, ErrMatchNotFound)
	}

	s.logger.InfoContext(ctx, "match started",
		slog.String("match_id", matchID), slog.String("court_id", courtID))
	return court, nil
}

// FinishMatch closes the match record, appends a result and only then frees
// the court. The record writes are attempted together; if either fails the
// court keeps its current match, so calling FinishMatch again redoes them
// (the result is keyed by the match id). A *PartialWriteError lists what
// failed.
func (s *matchService) FinishMatch(ctx context.Context, courtID string) (*models.MatchResult, error) {
	court, err := getRecord[models.Court](ctx, s.store, models.CollectionCourts, courtID, ErrCourtNotFound)
	if err != nil {
		return nil, err
	}
	next, err := NextCourtStatus(court.Status, CourtEventFinish)
	if err != nil {
		return nil, err
	}
	if court.CurrentMatch == nil {
		return nil, fmt.Errorf("%w: court has no current match", ErrInvalidCourtTransition)
	}

	played := *court.CurrentMatch
	endTime := s.clock.Now().UTC()
	result := models.MatchResult{
		ID:           played.ID,
		CourtID:      court.ID,
		CourtName:    court.Name,
		MatchID:      played.ID,
		TournamentID: court.TournamentID,
		TeamANames:   played.TeamA.Names(),
		TeamBNames:   played.TeamB.Names(),
		ScoreA:       played.ScoreA,
		ScoreB:       played.ScoreB,
		EndTime:      endTime,
	}
	if result.ID == "" {
		result.ID = repositories.NewID()
	}

	steps := []sagaStep{
		{name: "result", run: func(ctx context.Context) error {
			return s.store.Set(ctx, models.CollectionResults, result.ID, result)
		}},
	}
	if played.ID != "" {
		steps = append(steps, sagaStep{name: "match", run: func(ctx context.Context) error {
			return s.store.Update(ctx, models.CollectionMatches, played.ID, repositories.Fields{
				"status":  models.MatchStatusFinished,
				"scoreA":  played.ScoreA,
				"scoreB":  played.ScoreB,
				"endTime": endTime,
			})
		}})
	}

	if err := runSaga(ctx, "finish match", len(steps), steps); err != nil {
		s.logger.WarnContext(ctx, "finish match partially failed, court kept live",
			slog.String("court_id", courtID), slog.String("match_id", played.ID), slog.Any("error", err))
		return &result, err
	}

	err = s.store.Update(ctx, models.CollectionCourts, courtID, repositories.Fields{
		"status":       next,
		"currentMatch": nil,
	})
	if err != nil {
		err = &PartialWriteError{
			Op:        "finish match",
			Succeeded: len(steps),
			Failures:  []WriteFailure{{Step: "court", Err: storeError(err, ErrCourtNotFound)}},
		}
		s.logger.WarnContext(ctx, "finish match partially failed",
			slog.String("court_id", courtID), slog.String("match_id", played.ID), slog.Any("error", err))
		return &result, err
	}

	s.logger.InfoContext(ctx, "match finished",
		slog.String("court_id", courtID), slog.String("match_id", played.ID),
		slog.Int("score_a", played.ScoreA), slog.Int("score_b", played.ScoreB))
	return &result, nil
}

func (s *matchService) checkCourt(ctx context.Context, courtID *string, tournamentID string) error {
	if courtID == nil {
		return nil
	}
	court, err := getRecord[models.Court](ctx, s.store, models.CollectionCourts, *courtID, ErrCourtNotFound)
	if err != nil {
		return err
	}
	if court.TournamentID != tournamentID {
		return ErrCourtTournamentMismatch
	}
	return nil
}

// resolveTeams loads the players and embeds copies of them. A player may
// appear only once across both teams.
func (s *matchService) resolveTeams(ctx context.Context, a, b TeamInput) (models.Team, models.Team, error) {
	seen := map[string]bool{}
	build := func(in TeamInput, label string) (models.Team, error) {
		if in.Player1ID == "" {
			return models.Team{}, fmt.Errorf("%w: team %s needs player 1", ErrValidationFailed, label)
		}
		ids := []string{in.Player1ID}
		if p2 := trimmedPtr(in.Player2ID); p2 != nil {
			ids = append(ids, *p2)
		}
		players := make([]models.Player, 0, len(ids))
		for _, id := range ids {
			if seen[id] {
				return models.Team{}, fmt.Errorf("%w: player %s is selected twice", ErrValidationFailed, id)
			}
			seen[id] = true
			p, err := getRecord[models.Player](ctx, s.store, models.CollectionPlayers, id, ErrPlayerNotFound)
			if err != nil {
				return models.Team{}, err
			}
			players = append(players, *p)
		}
		team := models.Team{Player1: models.SnapshotPlayer(players[0])}
		if len(players) == 2 {
			p2 := models.SnapshotPlayer(players[1])
			team.Player2 = &p2
		}
		return team, nil
	}

	teamA, err := build(a, "A")
	if err != nil {
		return models.Team{}, models.Team{}, err
	}
	teamB, err := build(b, "B")
	if err != nil {
		return models.Team{}, models.Team{}, err
	}
	if (teamA.Player2 == nil) != (teamB.Player2 == nil) {
		return models.Team{}, models.Team{}, fmt.Errorf("%w: both teams must have the same number of players", ErrValidationFailed)
	}
	return teamA, teamB, nil
}

func teamInputOf(t models.Team) TeamInput {
	in := TeamInput{Player1ID: t.Player1.ID}
	if t.Player2 != nil {
		id := t.Player2.ID
		in.Player2ID = &id
	}
	return in
}
