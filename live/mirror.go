package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

// CourtMirror holds the latest courts snapshot received from the hub.
// It plays the role of the client-side view that score mutations are
// computed from: writes from other processes reach it with a lag, while
// writes applied through Apply are visible at once.
type CourtMirror struct {
	hub    *Hub
	logger *slog.Logger

	mu          sync.RWMutex
	courts      map[string]models.Court
	local       map[string]localWrite
	seq         uint64
	unsubscribe func()
}

// localWrite — подтверждённая локальная запись, которую снимок ещё не догнал.
type localWrite struct {
	court models.Court
	epoch uint64
}

func NewCourtMirror(ctx context.Context, hub *Hub, logger *slog.Logger) (*CourtMirror, error) {
	m := &CourtMirror{
		hub:    hub,
		logger: logger,
		courts: make(map[string]models.Court),
		local:  make(map[string]localWrite),
	}
	unsubscribe, err := hub.Subscribe(ctx, models.CollectionCourts, nil, m.apply)
	if err != nil {
		return nil, err
	}
	m.unsubscribe = unsubscribe
	return m, nil
}

func (m *CourtMirror) apply(snap Snapshot) {
	courts, err := repositories.DecodeAll[models.Court](snap.Documents)
	if err != nil {
		m.logger.Error("failed to decode courts snapshot", slog.Any("error", err))
		return
	}
	next := make(map[string]models.Court, len(courts))
	for _, c := range courts {
		next[c.ID] = c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.local {
		if snap.Epoch >= w.epoch {
			// Снимок прочитан после записи и уже содержит её.
			delete(m.local, id)
			continue
		}
		if _, ok := next[id]; ok {
			next[id] = w.court
		}
	}
	m.courts = next
	m.seq = snap.Seq
}

// Apply records a write the store has already acknowledged, so the next
// Court call sees it without waiting for the hub. Unknown courts are
// ignored.
func (m *CourtMirror) Apply(id string, update func(*models.Court)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courts[id]
	if !ok {
		return
	}
	c = copyCourt(c)
	update(&c)
	m.courts[id] = c
	m.local[id] = localWrite{court: c, epoch: m.hub.Advance()}
}

// Court returns the last known copy of the court.
func (m *CourtMirror) Court(id string) (models.Court, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courts[id]
	if !ok {
		return models.Court{}, false
	}
	return copyCourt(c), true
}

// Seq is the number of snapshots applied so far.
func (m *CourtMirror) Seq() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq
}

func (m *CourtMirror) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func copyCourt(c models.Court) models.Court {
	if c.CurrentMatch != nil {
		snap := models.SnapshotMatch(*c.CurrentMatch)
		c.CurrentMatch = &snap
	}
	return c
}
