package models

import "strings"

// Team — пара (или одиночка) внутри матча. Отдельной коллекции нет.
type Team struct {
	Player1 Player  `json:"player1"`
	Player2 *Player `json:"player2,omitempty"`
}

// Names returns "Ana / Bruno" for doubles and just the name for singles.
func (t Team) Names() string {
	names := []string{t.Player1.Name}
	if t.Player2 != nil && t.Player2.Name != "" {
		names = append(names, t.Player2.Name)
	}
	return strings.Join(names, " / ")
}
