// Package seen tracks which notifications the user has acknowledged.
//
// The set survives restarts through a Backend and is written wholesale as a
// JSON array under StorageKey on every change. Loading never fails: missing
// or corrupt data yields an empty set.
package seen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/metrics"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/store"
)

// StorageKey is the single well-known key the set is stored under.
const StorageKey = "notificaciones_vistas"

// Backend persists opaque values by key. Implementations return an error
// wrapping store.ErrNotFound for keys that were never written.
type Backend interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	PutValue(ctx context.Context, key string, value []byte) error
}

// Store is the in-memory seen set plus its durable backend. It is safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	writeMu sync.Mutex // held from encode through PutValue
	ids     map[string]struct{}
	backend Backend
	log     *zap.Logger
}

// New returns an empty Store. Call Load to read the persisted set.
func New(backend Backend, log *zap.Logger) *Store {
	return &Store{
		ids:     make(map[string]struct{}),
		backend: backend,
		log:     logger.OrNop(log).Named("seen"),
	}
}

// Load replaces the in-memory set with the persisted one and returns the
// number of IDs loaded.
func (s *Store) Load(ctx context.Context) int {
	ids := make(map[string]struct{})

	data, err := s.backend.GetValue(ctx, StorageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		s.log.Warn("loading seen set failed, starting empty", zap.Error(err))
	default:
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			s.log.Warn("seen set is corrupt, starting empty", zap.Error(err))
		}
		for _, id := range list {
			ids[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()

	return len(ids)
}

// Acknowledge marks id as seen and persists the full set. The in-memory
// set is updated even when persisting fails.
func (s *Store) Acknowledge(ctx context.Context, id string) error {
	return s.AcknowledgeAll(ctx, []string{id})
}

// AcknowledgeAll marks every id as seen and persists once.
func (s *Store) AcknowledgeAll(ctx context.Context, ids []string) error {
	s.mu.Lock()
	changed := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.ids[id]; !ok {
			s.ids[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// IsSeen reports whether id has been acknowledged.
func (s *Store) IsSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// FilterUnread returns the notifications in ns that are not acknowledged,
// preserving order.
func (s *Store) FilterUnread(ns []model.Notification) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, 0, len(ns))
	for _, n := range ns {
		if _, ok := s.ids[n.ID]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Prune drops every stored ID not in current and persists when the set
// shrank. It returns the number of IDs removed.
func (s *Store) Prune(ctx context.Context, current map[string]struct{}) (int, error) {
	s.mu.Lock()
	removed := 0
	for id := range s.ids {
		if _, ok := current[id]; !ok {
			delete(s.ids, id)
			removed++
		}
	}
	if removed == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.mu.Unlock()

	return removed, s.persist(ctx)
}

// IDs returns the acknowledged IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Len returns the number of acknowledged IDs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Store) sortedLocked() []string {
	list := make([]string, 0, len(s.ids))
	for id := range s.ids {
		list = append(list, id)
	}
	sort.Strings(list)
	return list
}

func (s *Store) encodeLocked() []byte {
	// Marshaling a []string cannot fail.
	data, _ := json.Marshal(s.sortedLocked())
	return data
}

// persist writes the current set. Writes are serialized and each one
// encodes the set as of the moment it holds writeMu, so the last write to
// land always carries the newest set.
func (s *Store) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	data := s.encodeLocked()
	s.mu.Unlock()

	if err := s.backend.PutValue(ctx, StorageKey, data); err != nil {
		metrics.SeenPersistFailuresTotal.Inc()
		s.log.Warn("persisting seen set failed", zap.Error(err))
		return fmt.Errorf("persisting seen set: %w", err)
	}
	return nil
}
