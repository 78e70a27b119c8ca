package services

import (
	"fmt"

	"github.com/Dosada05/beach-tennis-live/models"
)

// CourtEvent — событие, меняющее статус корта.
type CourtEvent string

const (
	CourtEventStart       CourtEvent = "start"
	CourtEventPause       CourtEvent = "pause"
	CourtEventResume      CourtEvent = "resume"
	CourtEventFinish      CourtEvent = "finish"
	CourtEventMaintenance CourtEvent = "maintenance"
	CourtEventRelease     CourtEvent = "release"
)

// Из in_play в maintenance перехода нет: матч сначала завершают.
var courtTransitions = map[models.CourtStatus]map[CourtEvent]models.CourtStatus{
	models.CourtStatusFree: {
		CourtEventStart:       models.CourtStatusInPlay,
		CourtEventMaintenance: models.CourtStatusMaintenance,
	},
	models.CourtStatusInPlay: {
		CourtEventPause:  models.CourtStatusPaused,
		CourtEventFinish: models.CourtStatusFree,
	},
	models.CourtStatusPaused: {
		CourtEventResume: models.CourtStatusInPlay,
		CourtEventFinish: models.CourtStatusFree,
	},
	models.CourtStatusMaintenance: {
		CourtEventRelease: models.CourtStatusFree,
	},
}

// NextCourtStatus returns the status reached from `from` on event.
func NextCourtStatus(from models.CourtStatus, event CourtEvent) (models.CourtStatus, error) {
	next, ok := courtTransitions[from][event]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s court", ErrInvalidCourtTransition, event, from)
	}
	return next, nil
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	allowed := map[models.MatchStatus][]models.MatchStatus{
		models.MatchStatusPlanned:  {models.MatchStatusOngoing},
		models.MatchStatusOngoing:  {models.MatchStatusFinished},
		models.MatchStatusFinished: {},
	}
	for _, s := range allowed[current] {
		if s == next {
			return true
		}
	}
	return false
}

func isValidTournamentTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentStatusPlanning:  {models.TournamentStatusActive, models.TournamentStatusCancelled},
		models.TournamentStatusActive:    {models.TournamentStatusFinished, models.TournamentStatusCancelled},
		models.TournamentStatusFinished:  {},
		models.TournamentStatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}
