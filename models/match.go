package models

import "time"

type MatchStatus string

const (
	MatchStatusPlanned  MatchStatus = "planned"
	MatchStatusOngoing  MatchStatus = "ongoing"
	MatchStatusFinished MatchStatus = "finished"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPlanned, MatchStatusOngoing, MatchStatusFinished:
		return true
	}
	return false
}

// ScoreSide выбирает, чей счёт меняется.
type ScoreSide string

const (
	SideA ScoreSide = "A"
	SideB ScoreSide = "B"
)

// Field returns the JSON field holding the side's score.
func (s ScoreSide) Field() (string, bool) {
	switch s {
	case SideA:
		return "scoreA", true
	case SideB:
		return "scoreB", true
	}
	return "", false
}

// Match хранится в коллекции matches. TeamA/TeamB содержат копии игроков,
// а не ссылки.
type Match struct {
	ID           string      `json:"id"`
	TournamentID string      `json:"tournamentId"`
	CourtID      *string     `json:"courtId,omitempty"`
	TeamA        Team        `json:"teamA"`
	TeamB        Team        `json:"teamB"`
	ScoreA       int         `json:"scoreA"`
	ScoreB       int         `json:"scoreB"`
	Status       MatchStatus `json:"status"`
	StartTime    *time.Time  `json:"startTime,omitempty"`
	EndTime      *time.Time  `json:"endTime,omitempty"`
}

func (m Match) Score(side ScoreSide) int {
	if side == SideB {
		return m.ScoreB
	}
	return m.ScoreA
}
