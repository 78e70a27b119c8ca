package repositories

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// storeFactory returns an empty store for one subtest.
type storeFactory func(t *testing.T) DocumentStore

func TestMemoryStoreSuite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) DocumentStore {
		return NewMemoryStore(clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)))
	})
}

// TestPostgresStoreSuite runs against a disposable database named by
// TEST_DATABASE_URL; the documents table is emptied before every case.
func TestPostgresStoreSuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := db.Connect(ctx, dsn, db.ToolPool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runStoreSuite(t, func(t *testing.T) DocumentStore {
		if _, err := conn.ExecContext(context.Background(), `DELETE FROM documents`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgresStore(conn, clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)))
	})
}

func runStoreSuite(t *testing.T, newStore storeFactory) {
	t.Run("update merges and nil deletes", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		email := "ana@example.com"
		id, err := store.Create(ctx, models.CollectionPlayers, models.Player{Name: "Ana", Category: models.CategoryA, Email: &email})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Update(ctx, models.CollectionPlayers, id, Fields{"name": "Ana Paula", "email": nil}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got := mustDecode[models.Player](t, store, models.CollectionPlayers, id)
		if got.Name != "Ana Paula" || got.Email != nil || got.Category != models.CategoryA {
			t.Errorf("player = %+v", got)
		}
	})

	t.Run("update missing record", func(t *testing.T) {
		store := newStore(t)
		err := store.Update(context.Background(), models.CollectionPlayers, "ghost", Fields{"name": "x"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("subfield merge keeps siblings", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id, err := store.Create(ctx, models.CollectionCourts, models.Court{
			Name: "Quadra 1", Status: models.CourtStatusInPlay, Pin: "1234",
			CurrentMatch: &models.Match{
				ID: "m1", ScoreA: 3, ScoreB: 2, Status: models.MatchStatusOngoing,
				TeamA: models.Team{Player1: models.Player{Name: "Ana"}},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.UpdateSubfield(ctx, models.CollectionCourts, id, "currentMatch", Fields{"scoreA": 4}); err != nil {
			t.Fatalf("UpdateSubfield: %v", err)
		}
		got := mustDecode[models.Court](t, store, models.CollectionCourts, id)
		want := models.Match{
			ID: "m1", ScoreA: 4, ScoreB: 2, Status: models.MatchStatusOngoing,
			TeamA: models.Team{Player1: models.Player{Name: "Ana"}},
		}
		if got.CurrentMatch == nil {
			t.Fatal("currentMatch vanished")
		}
		if diff := cmp.Diff(want, *got.CurrentMatch); diff != "" {
			t.Errorf("currentMatch (-want +got):\n%s", diff)
		}
		if got.Pin != "1234" || got.Status != models.CourtStatusInPlay {
			t.Errorf("court = %+v", got)
		}
	})

	t.Run("subfield on missing object", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id, err := store.Create(ctx, models.CollectionCourts, models.Court{Name: "Quadra 2", Status: models.CourtStatusFree, Pin: "5678"})
		if err != nil {
			t.Fatal(err)
		}
		err = store.UpdateSubfield(ctx, models.CollectionCourts, id, "currentMatch", Fields{"scoreA": 1})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if got := mustDecode[models.Court](t, store, models.CollectionCourts, id); got.CurrentMatch != nil {
			t.Errorf("currentMatch created: %+v", got.CurrentMatch)
		}
	})

	t.Run("set replaces", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		first := models.MatchResult{ID: "m9", CourtName: "Quadra 1", ScoreA: 6, ScoreB: 4, TeamANames: "Ana"}
		if err := store.Set(ctx, models.CollectionResults, "m9", first); err != nil {
			t.Fatal(err)
		}
		second := models.MatchResult{ID: "m9", CourtName: "Quadra 1", ScoreA: 7, ScoreB: 5}
		if err := store.Set(ctx, models.CollectionResults, "m9", second); err != nil {
			t.Fatal(err)
		}
		got := mustDecode[models.MatchResult](t, store, models.CollectionResults, "m9")
		if got.ScoreA != 7 || got.TeamANames != "" {
			t.Errorf("result = %+v", got)
		}
		docs, _ := store.ReadOnce(ctx, models.CollectionResults, nil)
		if len(docs) != 1 {
			t.Errorf("results = %d, want 1", len(docs))
		}
	})

	t.Run("read order and filter", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		var ids []string
		for _, c := range []models.Court{
			{Name: "Quadra 1", TournamentID: "t1", Pin: "1111"},
			{Name: "Quadra 2", TournamentID: "t2", Pin: "2222"},
			{Name: "Quadra 3", TournamentID: "t1", Pin: "3333"},
		} {
			id, err := store.Create(ctx, models.CollectionCourts, c)
			if err != nil {
				t.Fatal(err)
			}
			ids = append(ids, id)
		}
		// Обновление не меняет позицию записи.
		if err := store.Update(ctx, models.CollectionCourts, ids[0], Fields{"name": "Quadra Central"}); err != nil {
			t.Fatal(err)
		}

		docs, err := store.ReadOnce(ctx, models.CollectionCourts, Where("tournamentId", "t1"))
		if err != nil {
			t.Fatal(err)
		}
		got := make([]string, 0, len(docs))
		for _, d := range docs {
			got = append(got, d.ID)
		}
		if diff := cmp.Diff([]string{ids[0], ids[2]}, got); diff != "" {
			t.Errorf("ids (-want +got):\n%s", diff)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id, err := store.Create(ctx, models.CollectionArenas, models.Arena{Name: "Arena Leme"})
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := store.Remove(ctx, models.CollectionArenas, id); err != nil {
				t.Fatalf("Remove #%d: %v", i+1, err)
			}
		}
		if _, err := store.Get(ctx, models.CollectionArenas, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get err = %v, want ErrNotFound", err)
		}
	})
}

func mustDecode[T any](t *testing.T, store DocumentStore, coll models.Collection, id string) T {
	t.Helper()
	doc, err := store.Get(context.Background(), coll, id)
	if err != nil {
		t.Fatalf("get %s/%s: %v", coll, id, err)
	}
	v, err := Decode[T](doc)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
