package routes

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	_ "github.com/Dosada05/beach-tennis-live/docs"
	"github.com/Dosada05/beach-tennis-live/handlers"
	"github.com/Dosada05/beach-tennis-live/middleware"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers собирает все обработчики для маршрутизатора.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Arena      *handlers.ArenaHandler
	Player     *handlers.PlayerHandler
	Court      *handlers.CourtHandler
	Match      *handlers.MatchHandler
	Result     *handlers.ResultHandler
	Referee    *handlers.RefereeHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	AuthService    services.AuthService
	AccessService  services.AccessService
	PinLimiter     *middleware.IPLimiter
	RequestTimeout time.Duration
	AllowedOrigins []string
	TrustedProxies []netip.Prefix
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TrustedRealIP(opts.TrustedProxies))
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// WebSocket живёт дольше любого таймаута запроса.
	router.Get("/ws/{collection}", h.WebSocket.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

		r.Post("/auth/login", h.Auth.Login)

		// Публичное чтение для экрана арены
		r.Get("/tournaments", h.Tournament.ListTournaments)
		r.Get("/tournaments/{tournamentID}", h.Tournament.GetTournament)
		r.Get("/courts", h.Court.ListPublicCourts)
		r.Get("/results", h.Result.ListResults)
		r.Get("/matches", h.Match.ListMatches)
		r.Get("/matches/{matchID}", h.Match.GetMatch)

		r.Route("/referee", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.PinLimiter)).Post("/login", h.Referee.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RefereeOnly(opts.AccessService, opts.Logger))
				r.Get("/court", h.Referee.Court)
				r.Post("/score", h.Referee.Score)
				r.Post("/reset", h.Referee.ResetScore)
				r.Post("/pause", h.Referee.TogglePause)
				r.Post("/finish", h.Referee.Finish)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.AuthService, opts.Logger))

			r.Get("/me", h.Auth.Me)

			r.Route("/tournaments", func(r chi.Router) {
				r.Post("/", h.Tournament.CreateTournament)
				r.Put("/{tournamentID}", h.Tournament.UpdateTournament)
				r.Patch("/{tournamentID}/status", h.Tournament.UpdateTournamentStatus)
				r.Delete("/{tournamentID}", h.Tournament.DeleteTournament)
			})

			r.Route("/arenas", func(r chi.Router) {
				r.Get("/", h.Arena.ListArenas)
				r.Post("/", h.Arena.CreateArena)
				r.Get("/{arenaID}", h.Arena.GetArena)
				r.Put("/{arenaID}", h.Arena.UpdateArena)
				r.Delete("/{arenaID}", h.Arena.DeleteArena)
			})

			r.Route("/players", func(r chi.Router) {
				r.Get("/", h.Player.ListPlayers)
				r.Post("/", h.Player.CreatePlayer)
				r.Get("/{playerID}", h.Player.GetPlayer)
				r.Put("/{playerID}", h.Player.UpdatePlayer)
				r.Delete("/{playerID}", h.Player.DeletePlayer)
				r.Post("/{playerID}/photo", h.Player.UploadPhoto)
			})

			r.Route("/courts", func(r chi.Router) {
				r.Get("/", h.Court.ListCourts)
				r.Post("/", h.Court.CreateCourt)
				r.Get("/{courtID}", h.Court.GetCourt)
				r.Delete("/{courtID}", h.Court.DeleteCourt)
				r.Get("/{courtID}/qr", h.Court.QRCode)
				r.Post("/{courtID}/pin", h.Court.RegeneratePin)
				r.Post("/{courtID}/maintenance", h.Court.SetMaintenance)
				r.Delete("/{courtID}/maintenance", h.Court.ClearMaintenance)
				r.Post("/{courtID}/pause", h.Court.TogglePause)
				r.Post("/{courtID}/reset", h.Court.ResetScore)
				r.Post("/{courtID}/finish", h.Match.FinishCourtMatch)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Post("/", h.Match.CreateMatch)
				r.Put("/{matchID}", h.Match.UpdateMatch)
				r.Delete("/{matchID}", h.Match.DeleteMatch)
				r.Post("/{matchID}/start", h.Match.StartMatch)
			})

			r.Delete("/results/{resultID}", h.Result.DeleteResult)
		})
	})
}
