package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
)

const readRetryDelay = 2 * time.Second

// Snapshot is the full current content of a (filtered) collection.
type Snapshot struct {
	Collection models.Collection
	Filter     *repositories.Filter
	Documents  []repositories.Document
	// Seq counts deliveries to one subscriber, starting at 1.
	Seq uint64
	// Epoch is the hub epoch taken right before the read; the snapshot
	// contains every write acknowledged before that epoch was advanced.
	Epoch uint64
}

// Hub fans store changes out to subscribers. Each change wakes every
// subscription of the collection; the subscription re-reads and delivers the
// whole snapshot, never a diff.
type Hub struct {
	store  repositories.DocumentStore
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[models.Collection]map[*Subscription]bool

	epoch atomic.Uint64
}

func NewHub(store repositories.DocumentStore, logger *slog.Logger) *Hub {
	return &Hub{
		store:  store,
		logger: logger,
		rooms:  make(map[models.Collection]map[*Subscription]bool),
	}
}

// Subscription — один живой канал чтения.
type Subscription struct {
	hub        *Hub
	collection models.Collection
	filter     *repositories.Filter
	onSnapshot func(Snapshot)

	dirty     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	seq       uint64
}

// Subscribe delivers the current snapshot before returning, then re-delivers
// on every change from a dedicated goroutine until unsubscribe is called or
// ctx ends. A delivery already in flight when unsubscribe runs may still
// reach onSnapshot.
func (h *Hub) Subscribe(ctx context.Context, coll models.Collection, filter *repositories.Filter, onSnapshot func(Snapshot)) (func(), error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}
	sub := &Subscription{
		hub:        h,
		collection: coll,
		filter:     filter,
		onSnapshot: onSnapshot,
		dirty:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	// Регистрируемся до первого чтения, чтобы не потерять изменение между ними.
	h.register(sub)
	if err := sub.deliver(ctx); err != nil {
		h.unregister(sub)
		return nil, err
	}

	go sub.run(ctx)
	return sub.close, nil
}

// NotifyChange implements repositories.ChangeNotifier.
func (h *Hub) NotifyChange(change repositories.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[change.Collection] {
		sub.markDirty()
	}
}

// Subscribers returns the number of live subscriptions on coll.
func (h *Hub) Subscribers(coll models.Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[coll])
}

// Advance starts a new epoch. Snapshots read from now on carry an Epoch of
// at least the returned value.
func (h *Hub) Advance() uint64 {
	return h.epoch.Add(1)
}

func (h *Hub) register(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[sub.collection]; !ok {
		h.rooms[sub.collection] = make(map[*Subscription]bool)
	}
	h.rooms[sub.collection][sub] = true
	h.logger.Debug("subscription registered",
		slog.String("collection", string(sub.collection)),
		slog.Int("subscribers", len(h.rooms[sub.collection])))
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sub.collection]
	if !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, sub.collection)
	}
	h.logger.Debug("subscription removed",
		slog.String("collection", string(sub.collection)),
		slog.Int("subscribers", len(room)))
}

func (s *Subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default: // уже есть непрочитанное изменение — объединяем
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.unregister(s)
	})
}

func (s *Subscription) run(ctx context.Context) {
	defer s.close()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-s.dirty:
		}

		if err := s.deliver(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.hub.logger.Warn("snapshot read failed, retrying",
				slog.String("collection", string(s.collection)),
				slog.Any("error", err))
			select {
			case <-time.After(readRetryDelay):
				s.markDirty()
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Subscription) deliver(ctx context.Context) error {
	epoch := s.hub.epoch.Load()
	docs, err := s.hub.store.ReadOnce(ctx, s.collection, s.filter)
	if err != nil {
		return fmt.Errorf("read %s snapshot: %w", s.collection, err)
	}
	select {
	case <-s.done:
		return nil
	default:
	}
	s.seq++
	s.onSnapshot(Snapshot{
		Collection: s.collection,
		Filter:     s.filter,
		Documents:  docs,
		Seq:        s.seq,
		Epoch:      epoch,
	})
	return nil
}
