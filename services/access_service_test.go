package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/session"
)

func TestValidatePin(t *testing.T) {
	store, clock := newFixtureStore(t)
	first := mustCreate(t, store, models.CollectionCourts, models.Court{Name: "Quadra 1", Pin: "4821", TournamentID: "t1"})
	mustCreate(t, store, models.CollectionCourts, models.Court{Name: "Quadra 2", Pin: "1357", TournamentID: "t1"})
	// PIN может совпасть у кортов разных турниров.
	mustCreate(t, store, models.CollectionCourts, models.Court{Name: "Quadra X", Pin: "4821", TournamentID: "t2"})
	svc := NewAccessService(store, session.NewCodec("secret"), clock, discardLogger())
	ctx := context.Background()

	court, err := svc.ValidatePin(ctx, "4821")
	if err != nil {
		t.Fatalf("ValidatePin: %v", err)
	}
	if court.ID != first {
		t.Errorf("court = %s, want first court %s", court.ID, first)
	}

	if _, err := svc.ValidatePin(ctx, "9999"); !errors.Is(err, ErrPinNotFound) {
		t.Errorf("9999 err = %v, want ErrPinNotFound", err)
	}
	for _, pin := range []string{"", "12", "12345", "abcd"} {
		_, err := svc.ValidatePin(ctx, pin)
		if !errors.Is(err, ErrPinNotFound) || !errors.Is(err, ErrPinInvalid) {
			t.Errorf("pin %q err = %v, want ErrPinNotFound and ErrPinInvalid", pin, err)
		}
	}
}

func TestBindAndVerify(t *testing.T) {
	store, clock := newFixtureStore(t)
	courtID := mustCreate(t, store, models.CollectionCourts, models.Court{Name: "Quadra 1", Pin: "4821"})
	svc := NewAccessService(store, session.NewCodec("secret"), clock, discardLogger())
	courts := NewCourtService(store, nil, sequencePins("2468"), discardLogger())
	ctx := context.Background()

	binding, court, err := svc.Bind(ctx, " 4821 ")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if binding.CourtID != courtID || court.Name != "Quadra 1" || binding.Token == "" {
		t.Fatalf("binding = %+v", binding)
	}

	verified, _, err := svc.Verify(ctx, binding.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.CourtID != courtID || !verified.BoundAt.Equal(testNow) {
		t.Errorf("verified = %+v", verified)
	}

	// Токен не истекает со временем.
	clock.Advance(365 * 24 * time.Hour)
	if _, _, err := svc.Verify(ctx, binding.Token); err != nil {
		t.Errorf("Verify after a year: %v", err)
	}

	if _, err := courts.RegeneratePin(ctx, courtID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Verify(ctx, binding.Token); !errors.Is(err, ErrBindingRevoked) {
		t.Errorf("after pin change err = %v, want ErrBindingRevoked", err)
	}

	if _, _, err := svc.Verify(ctx, binding.Token+"x"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("tampered token err = %v", err)
	}
}

func TestPinResolverLifecycle(t *testing.T) {
	store, clock := newFixtureStore(t)
	courtID := mustCreate(t, store, models.CollectionCourts, models.Court{Name: "Quadra 1", Pin: "4821"})
	sessions := session.NewFileStore(filepath.Join(t.TempDir(), "court-auth.json"))
	resolver := NewPinResolver(store, sessions, clock)
	ctx := context.Background()

	if _, _, err := resolver.Current(ctx); !errors.Is(err, session.ErrNoBinding) {
		t.Fatalf("Current before login err = %v", err)
	}
	if _, err := resolver.Login(ctx, "0000"); !errors.Is(err, ErrPinNotFound) {
		t.Fatalf("login with unknown pin err = %v", err)
	}
	if _, _, err := resolver.Current(ctx); !errors.Is(err, session.ErrNoBinding) {
		t.Fatal("failed login must not store a binding")
	}

	binding, err := resolver.Login(ctx, "4821")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if binding.CourtID != courtID {
		t.Errorf("binding = %+v", binding)
	}

	// Новый резолвер с тем же файлом видит привязку.
	again := NewPinResolver(store, sessions, clock)
	got, court, err := again.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got.CourtID != courtID || court.Pin != "4821" {
		t.Errorf("current = %+v / %+v", got, court)
	}

	if err := store.Remove(ctx, models.CollectionCourts, courtID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := again.Current(ctx); !errors.Is(err, ErrBindingRevoked) {
		t.Errorf("after court delete err = %v, want ErrBindingRevoked", err)
	}

	if err := again.Logout(); err != nil {
		t.Fatal(err)
	}
	if err := again.Logout(); err != nil {
		t.Errorf("second logout: %v", err)
	}
	if _, _, err := again.Current(ctx); !errors.Is(err, session.ErrNoBinding) {
		t.Errorf("after logout err = %v", err)
	}
}

var _ repositories.DocumentStore = (*flakyStore)(nil)
