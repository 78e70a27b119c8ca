package main

import (
	"github.com/Dosada05/beach-tennis-live/config"
	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/Dosada05/beach-tennis-live/seed"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo players, arenas, tournaments and matches from YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			logger := newLogger("info")

			fixture, err := seed.Load(file)
			if err != nil {
				return err
			}

			clock := clockwork.NewRealClock()
			backend, err := openStore(cfg.DatabaseURL, db.ToolPool, clock, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			seeder := &seed.Seeder{
				Players:     services.NewPlayerService(backend.store, nil, logger),
				Arenas:      services.NewArenaService(backend.store, logger),
				Tournaments: services.NewTournamentService(backend.store, services.RandomPin, logger),
				Matches:     services.NewMatchService(backend.store, clock, logger),
				Logger:      logger,
			}
			_, err = seeder.Apply(cmd.Context(), fixture)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed/demo.yaml", "fixture file")
	return cmd
}
