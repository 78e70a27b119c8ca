package models

import "time"

// TournamentStatus представляет статусы турнира.
type TournamentStatus string

const (
	TournamentStatusPlanning  TournamentStatus = "planning"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusFinished  TournamentStatus = "finished"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusPlanning, TournamentStatusActive, TournamentStatusFinished, TournamentStatusCancelled:
		return true
	}
	return false
}

// Tournament представляет турнир. Date хранится как строка формы (YYYY-MM-DD),
// Time — опциональное время начала (HH:MM).
type Tournament struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Date      string           `json:"date"`
	Time      *string          `json:"time,omitempty"`
	Status    TournamentStatus `json:"status"`
	Location  *string          `json:"location,omitempty"`
	ArenaID   *string          `json:"arenaId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
