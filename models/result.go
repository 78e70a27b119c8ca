package models

import "time"

// MatchResult — запись ленты результатов для экрана арены.
type MatchResult struct {
	ID           string    `json:"id"`
	CourtID      string    `json:"courtId"`
	CourtName    string    `json:"courtName"`
	MatchID      string    `json:"matchId,omitempty"`
	TournamentID string    `json:"tournamentId,omitempty"`
	TeamANames   string    `json:"teamANames"`
	TeamBNames   string    `json:"teamBNames"`
	ScoreA       int       `json:"scoreA"`
	ScoreB       int       `json:"scoreB"`
	EndTime      time.Time `json:"endTime"`
}
