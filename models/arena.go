package models

import "time"

// ArenaCourt is a template entry, not a live Court.
type ArenaCourt struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Arena — переиспользуемый шаблон кортов площадки.
type Arena struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Location  *string      `json:"location,omitempty"`
	Courts    []ArenaCourt `json:"courts"`
	CreatedAt time.Time    `json:"createdAt"`
}
