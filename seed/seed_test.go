package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/jonboulle/clockwork"
)

func newSeeder(store repositories.DocumentStore) *Seeder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Seeder{
		Players:     services.NewPlayerService(store, nil, logger),
		Arenas:      services.NewArenaService(store, logger),
		Tournaments: services.NewTournamentService(store, nil, logger),
		Matches:     services.NewMatchService(store, clockwork.NewFakeClock(), logger),
		Logger:      logger,
	}
}

func TestApplyDemoFixture(t *testing.T) {
	f, err := Load("demo.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store := repositories.NewMemoryStore(clockwork.NewFakeClock())

	sum, err := newSeeder(store).Apply(context.Background(), f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := Summary{Players: 6, Arenas: 1, Tournaments: 1, Courts: 3, Matches: 2}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}

	docs, err := store.ReadOnce(context.Background(), models.CollectionMatches, nil)
	if err != nil {
		t.Fatal(err)
	}
	matches, _ := repositories.DecodeAll[models.Match](docs)
	if matches[0].TeamA.Names() != "Ana Souza / Bruna Lima" || matches[1].TeamB.Player2 != nil {
		t.Errorf("matches = %+v", matches)
	}
}

func TestApplyUnknownReferences(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown arena",
			yaml: "tournaments:\n  - {name: Open, date: \"2025-03-08\", arena: Nowhere}\n",
			want: `unknown arena "Nowhere"`,
		},
		{
			name: "unknown player",
			yaml: "players:\n  - {name: Ana, category: A}\ntournaments:\n  - name: Open\n    date: \"2025-03-08\"\n    matches:\n      - {teamA: [Ana], teamB: [Ghost]}\n",
			want: `unknown player "Ghost"`,
		},
		{
			name: "three players in a team",
			yaml: "tournaments:\n  - name: Open\n    date: \"2025-03-08\"\n    matches:\n      - {teamA: [a, b, c], teamB: [d]}\n",
			want: "one or two players",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			_, err = newSeeder(repositories.NewMemoryStore(clockwork.NewFakeClock())).Apply(context.Background(), f)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := Parse([]byte("players: [")); err == nil {
		t.Error("expected parse error")
	}
}
