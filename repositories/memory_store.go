package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/jonboulle/clockwork"
)

type memoryRecord struct {
	seq  uint64
	data []byte
}

// MemoryStore keeps every collection in process memory. Records are kept
// JSON-encoded, so readers always get independent copies.
type MemoryStore struct {
	mu       sync.RWMutex
	colls    map[models.Collection]map[string]memoryRecord
	seq      uint64
	clock    clockwork.Clock
	newID    func() string
	notifier ChangeNotifier
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		colls: make(map[models.Collection]map[string]memoryRecord),
		clock: clock,
		newID: NewID,
	}
}

// SetNotifier wires the subscriber side. Must be called before serving.
func (s *MemoryStore) SetNotifier(n ChangeNotifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// SetIDGenerator overrides id generation (tests).
func (s *MemoryStore) SetIDGenerator(gen func() string) {
	s.mu.Lock()
	s.newID = gen
	s.mu.Unlock()
}

func (s *MemoryStore) Create(ctx context.Context, coll models.Collection, record any) (string, error) {
	if err := validateCollection(coll); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	s.mu.Lock()
	id := s.newID()
	fields, err := prepareRecord(record, id, s.clock.Now())
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if err := s.putLocked(coll, id, fields); err != nil {
		s.mu.Unlock()
		return "", err
	}
	notifier := s.notifier
	s.mu.Unlock()

	notify(notifier, Change{Collection: coll, ID: id, Op: OpCreate})
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, coll models.Collection, id string, record any) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	fields, err := ToFields(record)
	if err != nil {
		return err
	}
	fields["id"] = id

	s.mu.Lock()
	_, existed := s.collLocked(coll)[id]
	if err := s.putLocked(coll, id, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	notifier := s.notifier
	s.mu.Unlock()

	op := OpCreate
	if existed {
		op = OpUpdate
	}
	notify(notifier, Change{Collection: coll, ID: id, Op: op})
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, coll models.Collection, id string, fields Fields) error {
	return s.UpdateSubfield(ctx, coll, id, "", fields)
}

func (s *MemoryStore) UpdateSubfield(ctx context.Context, coll models.Collection, id, subpath string, fields Fields) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	patch, err := ToFields(fields)
	if err != nil {
		return err
	}
	delete(patch, "id")

	s.mu.Lock()
	rec, ok := s.collLocked(coll)[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
	}
	var current map[string]any
	if err := json.Unmarshal(rec.data, &current); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}

	target := current
	for _, part := range splitSubpath(subpath) {
		next, ok := target[part].(map[string]any)
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s/%s has no %q", ErrNotFound, coll, id, subpath)
		}
		target = next
	}
	mergeFields(target, patch)

	data, err := json.Marshal(current)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: encode %s/%s: %w", ErrWrite, coll, id, err)
	}
	// seq сохраняем: порядок выдачи определяется моментом создания.
	s.colls[coll][id] = memoryRecord{seq: rec.seq, data: data}
	notifier := s.notifier
	s.mu.Unlock()

	notify(notifier, Change{Collection: coll, ID: id, Op: OpUpdate})
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, coll models.Collection, id string) error {
	if err := validateCollection(coll); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	s.mu.Lock()
	_, existed := s.collLocked(coll)[id]
	delete(s.colls[coll], id)
	notifier := s.notifier
	s.mu.Unlock()

	if existed {
		notify(notifier, Change{Collection: coll, ID: id, Op: OpDelete})
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, coll models.Collection, id string) (Document, error) {
	if err := validateCollection(coll); err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.colls[coll][id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
	}
	return Document{ID: id, Data: cloneBytes(rec.data)}, nil
}

func (s *MemoryStore) ReadOnce(ctx context.Context, coll models.Collection, filter *Filter) ([]Document, error) {
	if err := validateCollection(coll); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	type entry struct {
		id  string
		rec memoryRecord
	}
	entries := make([]entry, 0, len(s.colls[coll]))
	for id, rec := range s.colls[coll] {
		entries = append(entries, entry{id: id, rec: rec})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].rec.seq < entries[j].rec.seq })

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if filter != nil {
			match, err := matchesFilter(e.rec.data, filter)
			if err != nil {
				return nil, fmt.Errorf("filter %s/%s: %w", coll, e.id, err)
			}
			if !match {
				continue
			}
		}
		docs = append(docs, Document{ID: e.id, Data: cloneBytes(e.rec.data)})
	}
	return docs, nil
}

func (s *MemoryStore) collLocked(coll models.Collection) map[string]memoryRecord {
	m, ok := s.colls[coll]
	if !ok {
		m = make(map[string]memoryRecord)
		s.colls[coll] = m
	}
	return m
}

func (s *MemoryStore) putLocked(coll models.Collection, id string, fields Fields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: encode %s/%s: %w", ErrWrite, coll, id, err)
	}
	m := s.collLocked(coll)
	seq := s.seq + 1
	if prev, ok := m[id]; ok {
		seq = prev.seq
	} else {
		s.seq = seq
	}
	m[id] = memoryRecord{seq: seq, data: data}
	return nil
}

func matchesFilter(data []byte, filter *Filter) (bool, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return false, err
	}
	v, ok := record[filter.Field].(string)
	return ok && v == filter.Value, nil
}

func notify(n ChangeNotifier, change Change) {
	if n != nil {
		n.NotifyChange(change)
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
