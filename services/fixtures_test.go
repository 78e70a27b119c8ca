package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2025, 3, 8, 14, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixtureStore(t *testing.T) (*repositories.MemoryStore, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	return repositories.NewMemoryStore(clock), clock
}

// sequencePins returns the given PINs in order, then repeats the last one.
func sequencePins(pins ...string) PinGenerator {
	i := 0
	return func() string {
		p := pins[min(i, len(pins)-1)]
		i++
		return p
	}
}

func mustCreate(t *testing.T, store repositories.DocumentStore, coll models.Collection, record any) string {
	t.Helper()
	id, err := store.Create(context.Background(), coll, record)
	if err != nil {
		t.Fatalf("create %s: %v", coll, err)
	}
	return id
}

func mustCourt(t *testing.T, store repositories.DocumentStore, id string) models.Court {
	t.Helper()
	c, err := getRecord[models.Court](context.Background(), store, models.CollectionCourts, id, ErrCourtNotFound)
	if err != nil {
		t.Fatalf("get court %s: %v", id, err)
	}
	return *c
}

// liveCourt creates a tournament and an in_play court carrying a match with
// the given score.
func liveCourt(t *testing.T, store repositories.DocumentStore, scoreA, scoreB int) (tournamentID, courtID string) {
	t.Helper()
	tournamentID = mustCreate(t, store, models.CollectionTournaments, models.Tournament{
		Name: "Open de Verão", Date: "2025-11-08", Status: models.TournamentStatusActive,
	})
	courtID = mustCreate(t, store, models.CollectionCourts, models.Court{
		Name:         "Quadra 1",
		Status:       models.CourtStatusInPlay,
		Pin:          "4821",
		TournamentID: tournamentID,
		CurrentMatch: &models.Match{
			ID:           "m-live",
			TournamentID: tournamentID,
			TeamA:        models.Team{Player1: models.Player{ID: "p1", Name: "Ana"}},
			TeamB:        models.Team{Player1: models.Player{ID: "p2", Name: "Bia"}},
			ScoreA:       scoreA,
			ScoreB:       scoreB,
			Status:       models.MatchStatusOngoing,
		},
	})
	return tournamentID, courtID
}

// flakyStore fails selected writes and passes everything else through.
type flakyStore struct {
	*repositories.MemoryStore
	failCreate func(coll models.Collection, record any) bool
	failUpdate func(coll models.Collection, id string) bool
	failSet    func(coll models.Collection, id string) bool
}

func (f *flakyStore) Create(ctx context.Context, coll models.Collection, record any) (string, error) {
	if f.failCreate != nil && f.failCreate(coll, record) {
		return "", repositories.ErrWrite
	}
	return f.MemoryStore.Create(ctx, coll, record)
}

func (f *flakyStore) Update(ctx context.Context, coll models.Collection, id string, fields repositories.Fields) error {
	if f.failUpdate != nil && f.failUpdate(coll, id) {
		return repositories.ErrWrite
	}
	return f.MemoryStore.Update(ctx, coll, id, fields)
}

func (f *flakyStore) Set(ctx context.Context, coll models.Collection, id string, record any) error {
	if f.failSet != nil && f.failSet(coll, id) {
		return repositories.ErrWrite
	}
	return f.MemoryStore.Set(ctx, coll, id, record)
}

// staleSnapshots serves a fixed copy of a court regardless of later writes,
// like the view of a second referee whose device has not caught up.
type staleSnapshots struct {
	court models.Court
}

func (s staleSnapshots) Court(id string) (models.Court, bool) {
	if id != s.court.ID {
		return models.Court{}, false
	}
	c := s.court
	if c.CurrentMatch != nil {
		m := models.SnapshotMatch(*c.CurrentMatch)
		c.CurrentMatch = &m
	}
	return c, true
}

func (staleSnapshots) Apply(string, func(*models.Court)) {}
