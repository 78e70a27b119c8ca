package services

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

const maxPinAttempts = 50

// PinGenerator returns a 4-digit PIN candidate.
type PinGenerator func() string

// RandomPin draws from 1000-9999, so the PIN never starts with zero.
func RandomPin() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}

func isValidPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// pinAllocator hands out PINs not held by any court at the time it was
// loaded nor handed out by itself. Another writer can still take the same
// PIN concurrently; ValidatePin then admits the first court found.
type pinAllocator struct {
	gen   PinGenerator
	taken map[string]bool
}

func newPinAllocator(ctx context.Context, store repositories.DocumentStore, gen PinGenerator) (*pinAllocator, error) {
	docs, err := store.ReadOnce(ctx, models.CollectionCourts, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load court pins: %w", err)
	}
	courts, err := repositories.DecodeAll[models.Court](docs)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(courts))
	for _, c := range courts {
		taken[c.Pin] = true
	}
	return &pinAllocator{gen: gen, taken: taken}, nil
}

func (a *pinAllocator) next() (string, error) {
	for i := 0; i < maxPinAttempts; i++ {
		pin := a.gen()
		if !a.taken[pin] {
			a.taken[pin] = true
			return pin, nil
		}
	}
	return "", ErrPinUnavailable
}
