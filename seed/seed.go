// Package seed loads demo data (players, arenas, tournaments, matches)
// from a YAML file through the regular services.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/services"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Players     []PlayerFixture     `yaml:"players"`
	Arenas      []ArenaFixture      `yaml:"arenas"`
	Tournaments []TournamentFixture `yaml:"tournaments"`
}

type PlayerFixture struct {
	Name     string          `yaml:"name"`
	Category models.Category `yaml:"category"`
	Phone    string          `yaml:"phone"`
	Email    string          `yaml:"email"`
}

type ArenaFixture struct {
	Name     string   `yaml:"name"`
	Location string   `yaml:"location"`
	Courts   []string `yaml:"courts"`
}

type TournamentFixture struct {
	Name     string         `yaml:"name"`
	Date     string         `yaml:"date"`
	Time     string         `yaml:"time"`
	Location string         `yaml:"location"`
	Arena    string         `yaml:"arena"` // имя арены из этого же файла
	Matches  []MatchFixture `yaml:"matches"`
}

// MatchFixture lists player names; one name per team is singles, two is doubles.
type MatchFixture struct {
	TeamA []string `yaml:"teamA"`
	TeamB []string `yaml:"teamB"`
}

type Summary struct {
	Players     int
	Arenas      int
	Tournaments int
	Courts      int
	Matches     int
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

type Seeder struct {
	Players     services.PlayerService
	Arenas      services.ArenaService
	Tournaments services.TournamentService
	Matches     services.MatchService
	Logger      *slog.Logger
}

// Apply creates everything in f. It stops at the first error, leaving what
// was already written in place.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	var sum Summary

	playerIDs := make(map[string]string, len(f.Players))
	for _, p := range f.Players {
		created, err := s.Players.CreatePlayer(ctx, services.PlayerInput{
			Name:     p.Name,
			Category: p.Category,
			Phone:    optional(p.Phone),
			Email:    optional(p.Email),
		})
		if err != nil {
			return sum, fmt.Errorf("player %q: %w", p.Name, err)
		}
		playerIDs[p.Name] = created.ID
		sum.Players++
	}

	arenaIDs := make(map[string]string, len(f.Arenas))
	for _, a := range f.Arenas {
		courts := make([]services.ArenaCourtDef, 0, len(a.Courts))
		for _, name := range a.Courts {
			courts = append(courts, services.ArenaCourtDef{Name: name})
		}
		created, err := s.Arenas.CreateArena(ctx, services.ArenaInput{
			Name:     a.Name,
			Location: optional(a.Location),
			Courts:   courts,
		})
		if err != nil {
			return sum, fmt.Errorf("arena %q: %w", a.Name, err)
		}
		arenaIDs[a.Name] = created.ID
		sum.Arenas++
	}

	for _, t := range f.Tournaments {
		input := services.CreateTournamentInput{
			Name:     t.Name,
			Date:     t.Date,
			Time:     optional(t.Time),
			Location: optional(t.Location),
		}
		if t.Arena != "" {
			id, ok := arenaIDs[t.Arena]
			if !ok {
				return sum, fmt.Errorf("tournament %q: unknown arena %q", t.Name, t.Arena)
			}
			input.ArenaID = &id
		}
		creation, err := s.Tournaments.CreateTournament(ctx, input)
		if err != nil && !(creation != nil && errors.Is(err, services.ErrPartialWrite)) {
			return sum, fmt.Errorf("tournament %q: %w", t.Name, err)
		}
		if err != nil {
			s.Logger.WarnContext(ctx, "seed: some courts were not created",
				slog.String("tournament", t.Name), slog.Any("error", err))
		}
		sum.Tournaments++
		sum.Courts += len(creation.Courts)

		for i, m := range t.Matches {
			teamA, err := teamInput(playerIDs, m.TeamA)
			if err != nil {
				return sum, fmt.Errorf("tournament %q match %d: %w", t.Name, i+1, err)
			}
			teamB, err := teamInput(playerIDs, m.TeamB)
			if err != nil {
				return sum, fmt.Errorf("tournament %q match %d: %w", t.Name, i+1, err)
			}
			_, err = s.Matches.CreateMatch(ctx, services.CreateMatchInput{
				TournamentID: creation.Tournament.ID,
				TeamA:        teamA,
				TeamB:        teamB,
			})
			if err != nil {
				return sum, fmt.Errorf("tournament %q match %d: %w", t.Name, i+1, err)
			}
			sum.Matches++
		}
	}

	s.Logger.InfoContext(ctx, "seed applied",
		slog.Int("players", sum.Players), slog.Int("arenas", sum.Arenas),
		slog.Int("tournaments", sum.Tournaments), slog.Int("courts", sum.Courts),
		slog.Int("matches", sum.Matches))
	return sum, nil
}

func teamInput(playerIDs map[string]string, names []string) (services.TeamInput, error) {
	if len(names) == 0 || len(names) > 2 {
		return services.TeamInput{}, fmt.Errorf("a team needs one or two players, got %d", len(names))
	}
	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, ok := playerIDs[n]
		if !ok {
			return services.TeamInput{}, fmt.Errorf("unknown player %q", n)
		}
		ids = append(ids, id)
	}
	in := services.TeamInput{Player1ID: ids[0]}
	if len(ids) == 2 {
		in.Player2ID = &ids[1]
	}
	return in, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
