package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Dosada05/beach-tennis-live/config"
	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/Dosada05/beach-tennis-live/live"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/Dosada05/beach-tennis-live/session"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// refereeDevice — устройство судьи: сессия в локальном файле, запись прямо в базу.
type refereeDevice struct {
	backend  *backend
	resolver *services.PinResolver
	courts   services.CourtService
	matches  services.MatchService
	logger   *slog.Logger
	out      io.Writer
}

func openRefereeDevice(out io.Writer) (*refereeDevice, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	path := cfg.SessionPath
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}
	// Логи устройства уходят в stderr, stdout остаётся для табло.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	clock := clockwork.NewRealClock()
	b, err := openStore(cfg.DatabaseURL, db.ToolPool, clock, logger)
	if err != nil {
		return nil, err
	}
	return &refereeDevice{
		backend:  b,
		resolver: services.NewPinResolver(b.store, session.NewFileStore(path), clock),
		courts:   services.NewCourtService(b.store, nil, services.RandomPin, logger),
		matches:  services.NewMatchService(b.store, clock, logger),
		logger:   logger,
		out:      out,
	}, nil
}

func (d *refereeDevice) Close() { d.backend.Close() }

// boundCourt returns the bound court id or explains how to bind.
func (d *refereeDevice) boundCourt(ctx context.Context) (string, error) {
	binding, _, err := d.resolver.Current(ctx)
	switch {
	case errors.Is(err, session.ErrNoBinding):
		return "", errors.New("device is not bound to a court, run: referee login <pin>")
	case errors.Is(err, services.ErrBindingRevoked):
		return "", fmt.Errorf("%w; run referee logout and log in with the new PIN", err)
	case err != nil:
		return "", err
	}
	return binding.CourtID, nil
}

func (d *refereeDevice) printCourt(c *models.Court) {
	if c.CurrentMatch == nil {
		fmt.Fprintf(d.out, "%s [%s] no match\n", c.Name, c.Status)
		return
	}
	m := c.CurrentMatch
	fmt.Fprintf(d.out, "%s [%s] %s %d x %d %s\n",
		c.Name, c.Status, m.TeamA.Names(), m.ScoreA, m.ScoreB, m.TeamB.Names())
}

func refereeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "referee",
		Short: "Score a court from this device after logging in with its PIN",
	}
	cmd.AddCommand(
		refereeLoginCmd(),
		refereeLogoutCmd(),
		refereeStatusCmd(),
		refereeScoreCmd(),
		refereeCourtActionCmd("reset", "Set both scores to zero", func(ctx context.Context, d *refereeDevice, id string) (*models.Court, error) {
			return d.courts.ResetScore(ctx, id)
		}),
		refereeCourtActionCmd("pause", "Pause or resume the match", func(ctx context.Context, d *refereeDevice, id string) (*models.Court, error) {
			return d.courts.TogglePause(ctx, id)
		}),
		refereeFinishCmd(),
		refereeWatchCmd(),
	)
	return cmd
}

func withDevice(cmd *cobra.Command, fn func(ctx context.Context, d *refereeDevice) error) error {
	d, err := openRefereeDevice(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(cmd.Context(), d)
}

func refereeLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <pin>",
		Short: "Bind this device to the court holding the PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				binding, err := d.resolver.Login(ctx, args[0])
				if errors.Is(err, services.ErrPinNotFound) {
					return errors.New("PIN inválido: no court uses this PIN")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(d.out, "bound to %s (%s)\n", binding.Name, binding.CourtID)
				return nil
			})
		},
	}
}

func refereeLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the court binding of this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			path := cfg.SessionPath
			if path == "" {
				if path, err = session.DefaultPath(); err != nil {
					return err
				}
			}
			return session.NewFileStore(path).Clear()
		},
	}
}

func refereeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the bound court and its score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				id, err := d.boundCourt(ctx)
				if err != nil {
					return err
				}
				court, err := d.courts.GetCourt(ctx, id)
				if err != nil {
					return err
				}
				d.printCourt(court)
				return nil
			})
		},
	}
}

func refereeScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <A|B> <delta>",
		Short: "Add delta (may be negative) to a team's score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta must be an integer: %w", err)
			}
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				id, err := d.boundCourt(ctx)
				if err != nil {
					return err
				}
				court, err := d.courts.SetScore(ctx, id, models.ScoreSide(args[0]), delta)
				if err != nil {
					return err
				}
				d.printCourt(court)
				return nil
			})
		},
	}
}

func refereeCourtActionCmd(use, short string, op func(ctx context.Context, d *refereeDevice, courtID string) (*models.Court, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				id, err := d.boundCourt(ctx)
				if err != nil {
					return err
				}
				court, err := op(ctx, d, id)
				if err != nil {
					return err
				}
				d.printCourt(court)
				return nil
			})
		},
	}
}

func refereeFinishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Finish the match and free the court",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				id, err := d.boundCourt(ctx)
				if err != nil {
					return err
				}
				result, err := d.matches.FinishMatch(ctx, id)
				if result != nil {
					fmt.Fprintf(d.out, "final: %s %d x %d %s\n", result.TeamANames, result.ScoreA, result.ScoreB, result.TeamBNames)
				}
				return err
			})
		},
	}
}

// refereeWatchCmd follows the bound court live through LISTEN/NOTIFY.
func refereeWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the bound court every time it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, func(ctx context.Context, d *refereeDevice) error {
				id, err := d.boundCourt(ctx)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				cfg, err := config.LoadClient()
				if err != nil {
					return err
				}
				hub := live.NewHub(d.backend.store, d.logger)
				go live.ListenPostgres(ctx, cfg.DatabaseURL, db.ChangeChannel, hub, d.logger)

				unsubscribe, err := hub.Subscribe(ctx, models.CollectionCourts, repositories.Where("id", id), func(snap live.Snapshot) {
					courts, err := repositories.DecodeAll[models.Court](snap.Documents)
					if err != nil || len(courts) == 0 {
						fmt.Fprintln(d.out, "court removed")
						return
					}
					d.printCourt(&courts[0])
				})
				if err != nil {
					return err
				}
				defer unsubscribe()

				<-ctx.Done()
				return nil
			})
		},
	}
}
