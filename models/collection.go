package models

// Collection is the name of a top-level document collection.
type Collection string

const (
	CollectionPlayers     Collection = "players"
	CollectionArenas      Collection = "arenas"
	CollectionCourts      Collection = "courts"
	CollectionMatches     Collection = "matches"
	CollectionTournaments Collection = "tournaments"
	CollectionResults     Collection = "results"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{
	CollectionPlayers,
	CollectionArenas,
	CollectionCourts,
	CollectionMatches,
	CollectionTournaments,
	CollectionResults,
}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}
