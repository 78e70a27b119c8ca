package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/session"
	"github.com/jonboulle/clockwork"
)

// AccessService обслуживает вход судьи по PIN корта.
type AccessService interface {
	ValidatePin(ctx context.Context, pin string) (*models.Court, error)
	Bind(ctx context.Context, pin string) (*session.Binding, *models.Court, error)
	Verify(ctx context.Context, token string) (*session.Binding, *models.Court, error)
}

type accessService struct {
	store  repositories.DocumentStore
	codec  *session.Codec
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewAccessService(store repositories.DocumentStore, codec *session.Codec, clock clockwork.Clock, logger *slog.Logger) AccessService {
	return &accessService{
		store:  store,
		codec:  codec,
		clock:  clock,
		logger: logger,
	}
}

// ValidatePin finds the court carrying pin. When several courts share the
// PIN the first one in store order wins. No match is ErrPinNotFound.
func (s *accessService) ValidatePin(ctx context.Context, pin string) (*models.Court, error) {
	return findCourtByPin(ctx, s.store, pin)
}

// Bind validates pin and returns a signed binding. The token never expires;
// it stops working only when the court's PIN changes.
func (s *accessService) Bind(ctx context.Context, pin string) (*session.Binding, *models.Court, error) {
	court, err := s.ValidatePin(ctx, pin)
	if err != nil {
		return nil, nil, err
	}
	binding := session.Binding{
		CourtID: court.ID,
		Pin:     court.Pin,
		Name:    court.Name,
		BoundAt: s.clock.Now().UTC().Truncate(time.Second),
	}
	token, err := s.codec.Sign(binding)
	if err != nil {
		return nil, nil, err
	}
	binding.Token = token

	s.logger.InfoContext(ctx, "referee bound to court",
		slog.String("court_id", court.ID), slog.String("court_name", court.Name))
	return &binding, court, nil
}

func (s *accessService) Verify(ctx context.Context, token string) (*session.Binding, *models.Court, error) {
	binding, err := s.codec.Parse(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	court, err := checkBinding(ctx, s.store, binding)
	if err != nil {
		return nil, nil, err
	}
	return &binding, court, nil
}

// PinResolver is the referee device side: it keeps the binding in a local
// session.Store instead of handing out a token.
type PinResolver struct {
	store    repositories.DocumentStore
	sessions session.Store
	clock    clockwork.Clock
}

func NewPinResolver(store repositories.DocumentStore, sessions session.Store, clock clockwork.Clock) *PinResolver {
	return &PinResolver{store: store, sessions: sessions, clock: clock}
}

func (r *PinResolver) Login(ctx context.Context, pin string) (session.Binding, error) {
	court, err := findCourtByPin(ctx, r.store, pin)
	if err != nil {
		return session.Binding{}, err
	}
	binding := session.Binding{
		CourtID: court.ID,
		Pin:     court.Pin,
		Name:    court.Name,
		BoundAt: r.clock.Now().UTC(),
	}
	if err := r.sessions.Save(binding); err != nil {
		return session.Binding{}, fmt.Errorf("failed to save court binding: %w", err)
	}
	return binding, nil
}

func (r *PinResolver) Logout() error {
	return r.sessions.Clear()
}

// Current returns the saved binding and its court. A binding whose court
// was deleted or got a new PIN is ErrBindingRevoked and stays on disk until
// Logout.
func (r *PinResolver) Current(ctx context.Context) (session.Binding, *models.Court, error) {
	binding, err := r.sessions.Load()
	if err != nil {
		return session.Binding{}, nil, err
	}
	court, err := checkBinding(ctx, r.store, binding)
	if err != nil {
		return binding, nil, err
	}
	return binding, court, nil
}

func findCourtByPin(ctx context.Context, store repositories.DocumentStore, pin string) (*models.Court, error) {
	pin = strings.TrimSpace(pin)
	if !isValidPin(pin) {
		return nil, fmt.Errorf("%w: %w", ErrPinNotFound, ErrPinInvalid)
	}
	courts, err := listRecords[models.Court](ctx, store, models.CollectionCourts, repositories.Where("pin", pin))
	if err != nil {
		return nil, fmt.Errorf("failed to look up pin: %w", err)
	}
	if len(courts) == 0 {
		return nil, ErrPinNotFound
	}
	return &courts[0], nil
}

func checkBinding(ctx context.Context, store repositories.DocumentStore, b session.Binding) (*models.Court, error) {
	court, err := getRecord[models.Court](ctx, store, models.CollectionCourts, b.CourtID, ErrCourtNotFound)
	if errors.Is(err, ErrCourtNotFound) {
		return nil, fmt.Errorf("%w: court deleted", ErrBindingRevoked)
	}
	if err != nil {
		return nil, err
	}
	if court.Pin != b.Pin {
		return nil, fmt.Errorf("%w: pin changed", ErrBindingRevoked)
	}
	return court, nil
}
