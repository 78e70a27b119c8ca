package models

type CourtStatus string

const (
	CourtStatusFree        CourtStatus = "free"
	CourtStatusInPlay      CourtStatus = "in_play"
	CourtStatusPaused      CourtStatus = "paused"
	CourtStatusMaintenance CourtStatus = "maintenance"
)

func (s CourtStatus) Valid() bool {
	switch s {
	case CourtStatusFree, CourtStatusInPlay, CourtStatusPaused, CourtStatusMaintenance:
		return true
	}
	return false
}

// Live reports whether a match is being played (or paused) on the court.
func (s CourtStatus) Live() bool {
	return s == CourtStatusInPlay || s == CourtStatusPaused
}

// Court — живая запись корта турнира. CurrentMatch является снимком матча.
type Court struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Status       CourtStatus `json:"status"`
	CurrentMatch *Match      `json:"currentMatch,omitempty"`
	Pin          string      `json:"pin"`
	TournamentID string      `json:"tournamentId"`
}
