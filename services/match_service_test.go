package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/google/go-cmp/cmp"
)

type matchFixture struct {
	store        repositories.DocumentStore
	tournamentID string
	courtID      string
	matchID      string
	players      []string
}

func newMatchFixture(t *testing.T, store repositories.DocumentStore) matchFixture {
	t.Helper()
	f := matchFixture{store: store}
	f.tournamentID = mustCreate(t, store, models.CollectionTournaments, models.Tournament{
		Name: "Open de Verão", Date: "2025-11-08", Status: models.TournamentStatusActive,
	})
	f.courtID = mustCreate(t, store, models.CollectionCourts, models.Court{
		Name: "Quadra Central", Status: models.CourtStatusFree, Pin: "5150", TournamentID: f.tournamentID,
	})
	for _, name := range []string{"Ana", "Bruno", "Carla", "Davi"} {
		f.players = append(f.players, mustCreate(t, store, models.CollectionPlayers, models.Player{Name: name, Category: models.CategoryA}))
	}
	p2, p4 := f.players[1], f.players[3]
	f.matchID = mustCreate(t, store, models.CollectionMatches, models.Match{
		TournamentID: f.tournamentID,
		Status:       models.MatchStatusPlanned,
		TeamA:        models.Team{Player1: models.Player{ID: f.players[0], Name: "Ana"}, Player2: &models.Player{ID: p2, Name: "Bruno"}},
		TeamB:        models.Team{Player1: models.Player{ID: f.players[2], Name: "Carla"}, Player2: &models.Player{ID: p4, Name: "Davi"}},
	})
	return f
}

func getMatch(t *testing.T, store repositories.DocumentStore, id string) models.Match {
	t.Helper()
	m, err := getRecord[models.Match](context.Background(), store, models.CollectionMatches, id, ErrMatchNotFound)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	return *m
}

func TestStartMatchPutsSnapshotOnCourt(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())

	court, err := svc.StartMatch(context.Background(), f.matchID, f.courtID)
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if court.Status != models.CourtStatusInPlay {
		t.Errorf("returned status = %s", court.Status)
	}

	stored := mustCourt(t, store, f.courtID)
	if stored.Status != models.CourtStatusInPlay || stored.CurrentMatch == nil {
		t.Fatalf("court = %+v", stored)
	}
	cm := stored.CurrentMatch
	if cm.ID != f.matchID || cm.Status != models.MatchStatusOngoing || cm.ScoreA != 0 || cm.ScoreB != 0 {
		t.Errorf("current match = %+v", cm)
	}
	if cm.StartTime == nil || !cm.StartTime.Equal(testNow) {
		t.Errorf("startTime = %v, want %v", cm.StartTime, testNow)
	}
	if cm.TeamA.Names() != "Ana / Bruno" {
		t.Errorf("team A = %q", cm.TeamA.Names())
	}

	match := getMatch(t, store, f.matchID)
	if match.Status != models.MatchStatusOngoing || derefString(match.CourtID) != f.courtID {
		t.Errorf("match = %+v", match)
	}
}

func TestStartMatchIsIdempotent(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatalf("repeated StartMatch: %v", err)
	}
}

func TestStartMatchCompletesAfterFailedMatchWrite(t *testing.T) {
	mem, clock := newFixtureStore(t)
	failMatch := true
	store := &flakyStore{MemoryStore: mem, failUpdate: func(coll models.Collection, _ string) bool {
		return coll == models.CollectionMatches && failMatch
	}}
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); !errors.Is(err, ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if mustCourt(t, store, f.courtID).Status != models.CourtStatusInPlay {
		t.Fatal("court must be written before the match")
	}

	failMatch = false
	clock.Advance(time.Minute)
	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	match := getMatch(t, store, f.matchID)
	if match.Status != models.MatchStatusOngoing {
		t.Errorf("match status = %s", match.Status)
	}
	if match.StartTime == nil || !match.StartTime.Equal(testNow) {
		t.Errorf("retry must keep the court's start time, got %v", match.StartTime)
	}
}

func TestStartMatchRejectsBusyCourt(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	other := mustCreate(t, store, models.CollectionMatches, models.Match{
		TournamentID: f.tournamentID, Status: models.MatchStatusPlanned,
		TeamA: models.Team{Player1: models.Player{ID: "x1", Name: "Eva"}},
		TeamB: models.Team{Player1: models.Player{ID: "x2", Name: "Fabi"}},
	})
	if _, err := svc.StartMatch(ctx, other, f.courtID); !errors.Is(err, ErrInvalidCourtTransition) {
		t.Errorf("err = %v, want ErrInvalidCourtTransition", err)
	}
}

func TestStartMatchRejectsForeignCourt(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	foreign := mustCreate(t, store, models.CollectionCourts, models.Court{
		Name: "Outra", Status: models.CourtStatusFree, Pin: "7777", TournamentID: "another",
	})
	svc := NewMatchService(store, clock, discardLogger())

	if _, err := svc.StartMatch(context.Background(), f.matchID, foreign); !errors.Is(err, ErrCourtTournamentMismatch) {
		t.Errorf("err = %v, want ErrCourtTournamentMismatch", err)
	}
}

func TestFinishMatchWritesAllRecords(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	courts := NewCourtService(store, nil, nil, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		courts.SetScore(ctx, f.courtID, models.SideA, 1)
	}
	courts.SetScore(ctx, f.courtID, models.SideB, 1)
	clock.Advance(45 * time.Minute)

	result, err := svc.FinishMatch(ctx, f.courtID)
	if err != nil {
		t.Fatalf("FinishMatch: %v", err)
	}

	want := models.MatchResult{
		ID:           f.matchID,
		CourtID:      f.courtID,
		CourtName:    "Quadra Central",
		MatchID:      f.matchID,
		TournamentID: f.tournamentID,
		TeamANames:   "Ana / Bruno",
		TeamBNames:   "Carla / Davi",
		ScoreA:       6,
		ScoreB:       1,
		EndTime:      clock.Now().UTC(),
	}
	if diff := cmp.Diff(want, *result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	stored := mustCourt(t, store, f.courtID)
	if stored.Status != models.CourtStatusFree || stored.CurrentMatch != nil {
		t.Errorf("court after finish = %+v", stored)
	}
	match := getMatch(t, store, f.matchID)
	if match.Status != models.MatchStatusFinished || match.ScoreA != 6 || match.ScoreB != 1 || match.EndTime == nil {
		t.Errorf("match after finish = %+v", match)
	}
	results, err := NewResultService(store).ListResults(ctx, f.tournamentID, 0)
	if err != nil || len(results) != 1 || results[0].ID != f.matchID {
		t.Errorf("results = %+v, %v", results, err)
	}
}

func TestFinishMatchKeepsCourtLiveUntilResultIsWritten(t *testing.T) {
	mem, clock := newFixtureStore(t)
	store := &flakyStore{MemoryStore: mem}
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	courts := NewCourtService(store, nil, nil, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if _, err := courts.SetScore(ctx, f.courtID, models.SideA, 1); err != nil {
			t.Fatal(err)
		}
	}
	store.failSet = func(coll models.Collection, _ string) bool { return coll == models.CollectionResults }

	_, err := svc.FinishMatch(ctx, f.courtID)
	if !errors.Is(err, ErrPartialWrite) {
		t.Fatalf("err = %v, want ErrPartialWrite", err)
	}
	var pw *PartialWriteError
	if !errors.As(err, &pw) {
		t.Fatalf("err is %T", err)
	}
	if pw.Succeeded != 1 || len(pw.Failures) != 1 || pw.Failures[0].Step != "result" {
		t.Errorf("partial write = %+v", pw)
	}
	if !errors.Is(err, repositories.ErrWrite) {
		t.Error("partial write must unwrap to the store error")
	}

	// Корт не освобождается, пока результат не записан.
	stored := mustCourt(t, store, f.courtID)
	if stored.Status != models.CourtStatusInPlay || stored.CurrentMatch == nil || stored.CurrentMatch.ScoreA != 4 {
		t.Fatalf("court after failed finish = %+v", stored)
	}

	store.failSet = nil
	clock.Advance(time.Minute)
	result, err := svc.FinishMatch(ctx, f.courtID)
	if err != nil {
		t.Fatalf("retry FinishMatch: %v", err)
	}
	if result.ScoreA != 4 {
		t.Errorf("retried result score = %d, want 4", result.ScoreA)
	}
	if mustCourt(t, store, f.courtID).Status != models.CourtStatusFree {
		t.Error("court not freed after retry")
	}
	if getMatch(t, store, f.matchID).Status != models.MatchStatusFinished {
		t.Error("match not finished")
	}
	results, err := NewResultService(store).ListResults(ctx, f.tournamentID, 0)
	if err != nil || len(results) != 1 || results[0].ScoreA != 4 {
		t.Errorf("results after retry = %+v, %v", results, err)
	}
}

func TestFinishMatchReportsCourtWriteFailure(t *testing.T) {
	mem, clock := newFixtureStore(t)
	store := &flakyStore{MemoryStore: mem}
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	store.failUpdate = func(coll models.Collection, _ string) bool { return coll == models.CollectionCourts }

	_, err := svc.FinishMatch(ctx, f.courtID)
	var pw *PartialWriteError
	if !errors.As(err, &pw) {
		t.Fatalf("err = %v, want *PartialWriteError", err)
	}
	if pw.Succeeded != 2 || len(pw.Failures) != 1 || pw.Failures[0].Step != "court" {
		t.Errorf("partial write = %+v", pw)
	}

	store.failUpdate = nil
	if _, err := svc.FinishMatch(ctx, f.courtID); err != nil {
		t.Fatalf("retry FinishMatch: %v", err)
	}
	if mustCourt(t, store, f.courtID).Status != models.CourtStatusFree {
		t.Error("court not freed after retry")
	}
}

func TestFinishMatchOnFreeCourt(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())

	if _, err := svc.FinishMatch(context.Background(), f.courtID); !errors.Is(err, ErrInvalidCourtTransition) {
		t.Errorf("err = %v, want ErrInvalidCourtTransition", err)
	}
}

func TestCreateMatchValidatesTeams(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()
	p := f.players

	tests := []struct {
		name  string
		input CreateMatchInput
		want  error
	}{
		{
			name: "player twice",
			input: CreateMatchInput{TournamentID: f.tournamentID,
				TeamA: TeamInput{Player1ID: p[0]}, TeamB: TeamInput{Player1ID: p[0]}},
			want: ErrValidationFailed,
		},
		{
			name: "mixed singles and doubles",
			input: CreateMatchInput{TournamentID: f.tournamentID,
				TeamA: TeamInput{Player1ID: p[0], Player2ID: &p[1]}, TeamB: TeamInput{Player1ID: p[2]}},
			want: ErrValidationFailed,
		},
		{
			name: "unknown player",
			input: CreateMatchInput{TournamentID: f.tournamentID,
				TeamA: TeamInput{Player1ID: p[0]}, TeamB: TeamInput{Player1ID: "ghost"}},
			want: ErrPlayerNotFound,
		},
		{
			name: "unknown tournament",
			input: CreateMatchInput{TournamentID: "nope",
				TeamA: TeamInput{Player1ID: p[0]}, TeamB: TeamInput{Player1ID: p[1]}},
			want: ErrTournamentNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateMatch(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	m, err := svc.CreateMatch(ctx, CreateMatchInput{
		TournamentID: f.tournamentID,
		CourtID:      &f.courtID,
		TeamA:        TeamInput{Player1ID: p[0]},
		TeamB:        TeamInput{Player1ID: p[3]},
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if m.Status != models.MatchStatusPlanned || m.TeamB.Player1.Name != "Davi" {
		t.Errorf("match = %+v", m)
	}
}

func TestDeleteMatch(t *testing.T) {
	store, clock := newFixtureStore(t)
	f := newMatchFixture(t, store)
	svc := NewMatchService(store, clock, discardLogger())
	ctx := context.Background()

	if _, err := svc.StartMatch(ctx, f.matchID, f.courtID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMatch(ctx, f.matchID); !errors.Is(err, ErrInvalidMatchTransition) {
		t.Errorf("deleting ongoing match err = %v", err)
	}
	if _, err := svc.FinishMatch(ctx, f.courtID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMatch(ctx, f.matchID); err != nil {
		t.Errorf("DeleteMatch: %v", err)
	}
	if err := svc.DeleteMatch(ctx, f.matchID); err != nil {
		t.Errorf("second DeleteMatch: %v", err)
	}
}
