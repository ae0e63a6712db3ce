/*
Package cache implements the durable KPI entry cache.

PURPOSE:
  Keeps every submitted KPI entry in a local, write-through store that
  survives restarts, and queues the entries that still need to reach a
  remote system. It runs beside the KPI store's own entry list; the two
  receive the same entries but are never reconciled.

STATE:
  entries:     every cached entry, unique by id
  pendingSync: entries not yet confirmed by the SyncProvider
  lastSync:    time of the last successful sync
  initialized: one-time setup flag, see Initialize

PERSISTENCE:
  The {entries, lastSync, pendingSync} triple is stored as one JSON blob
  under StorageKey, wrapped with a schema version. Open rehydrates it;
  a missing, unreadable or differently-versioned blob yields the empty
  default. Every mutation writes the blob again. Write failures are
  logged and the in-memory state stays authoritative.

SYNC:
  SyncEntries hands a snapshot of the pending queue to the SyncProvider.
  Only a Committed outcome removes entries from the queue. The default
  provider (LocalCommit) always commits.

SEE ALSO:
  - sync.go:      SyncProvider and outcomes
  - storage.go:   Storage interface, MemoryStorage
  - scheduler.go: Periodic sync
  - store/sqlite: Durable Storage
*/
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/model"
)

const (
	// StorageKey names the persisted blob.
	StorageKey = "kpi-entries-cache"
	// SchemaVersion is bumped whenever the blob layout changes. Blobs with
	// another version are discarded on Open.
	SchemaVersion = 1
)

type persistedState struct {
	Entries     []model.KPIEntry `json:"entries"`
	LastSync    time.Time        `json:"lastSync"`
	PendingSync []model.KPIEntry `json:"pendingSync"`
}

type envelope struct {
	Version int            `json:"version"`
	State   persistedState `json:"state"`
}

// Stats summarises the cache for status displays.
type Stats struct {
	Entries     int       `json:"entries"`
	Pending     int       `json:"pending"`
	LastSync    time.Time `json:"lastSync"`
	Initialized bool      `json:"initialized"`
}

// Cache is the durable KPI entry cache. Safe for concurrent use.
type Cache struct {
	storage  Storage
	provider SyncProvider
	logger   *zap.Logger
	now      func() time.Time

	syncMu sync.Mutex // serialises SyncEntries

	mu          sync.Mutex
	entries     []model.KPIEntry
	ids         map[string]struct{}
	pending     []model.KPIEntry
	lastSync    time.Time
	initialized bool
}

type Option func(*Cache)

func WithSyncProvider(p SyncProvider) Option {
	return func(c *Cache) { c.provider = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open builds a cache and rehydrates it from storage. It never fails:
// anything that cannot be read is logged and replaced by the empty default.
func Open(ctx context.Context, storage Storage, opts ...Option) *Cache {
	c := &Cache{
		storage:  storage,
		provider: LocalCommit{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rehydrate(ctx)
	return c
}

func (c *Cache) rehydrate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()

	data, err := c.storage.Load(ctx, StorageKey)
	if err != nil {
		c.logger.Warn("cache load failed, starting empty", zap.Error(err))
		return
	}
	if data == nil {
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("cache blob unreadable, starting empty", zap.Error(err))
		return
	}
	if env.Version != SchemaVersion {
		c.logger.Info("cache schema version mismatch, starting empty",
			zap.Int("found", env.Version), zap.Int("expected", SchemaVersion))
		return
	}

	for _, e := range env.State.Entries {
		if _, dup := c.ids[e.ID]; dup {
			continue
		}
		c.ids[e.ID] = struct{}{}
		c.entries = append(c.entries, e)
	}
	queued := make(map[string]struct{}, len(env.State.PendingSync))
	for _, e := range env.State.PendingSync {
		if _, known := c.ids[e.ID]; !known {
			continue
		}
		if _, dup := queued[e.ID]; dup {
			continue
		}
		queued[e.ID] = struct{}{}
		c.pending = append(c.pending, e)
	}
	if !env.State.LastSync.IsZero() {
		c.lastSync = env.State.LastSync
	}
	c.logger.Debug("cache rehydrated",
		zap.Int("entries", len(c.entries)), zap.Int("pending", len(c.pending)))
}

func (c *Cache) resetLocked() {
	c.entries = nil
	c.ids = make(map[string]struct{})
	c.pending = nil
	c.lastSync = c.now()
}

// Initialize marks the cache as set up. Only the first call has an effect.
func (c *Cache) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return
	}
	c.initialized = true
}

func (c *Cache) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// AddEntry caches e and queues it for sync. An entry whose id is already
// cached is ignored; the return value reports whether e was added.
func (c *Cache) AddEntry(ctx context.Context, e model.KPIEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.ids[e.ID]; dup {
		return false
	}
	c.ids[e.ID] = struct{}{}
	c.entries = append(c.entries, e)
	c.pending = append(c.pending, e)
	c.persistLocked(ctx)
	return true
}

// SyncEntries pushes the pending queue to the sync provider. With nothing
// pending it returns immediately. Entries added while a push is in flight
// stay queued for the next call.
func (c *Cache) SyncEntries(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	batch := slices.Clone(c.pending)
	c.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	outcome, err := c.provider.Push(ctx, batch)
	if err != nil {
		c.logger.Error("failed to sync entries", zap.Int("pending", len(batch)), zap.Error(err))
		return fmt.Errorf("push %d pending entries: %w", len(batch), err)
	}
	if outcome != Committed {
		c.logger.Info("sync deferred by provider", zap.Int("pending", len(batch)))
		return model.ErrSyncDeferred
	}

	pushed := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		pushed[e.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = slices.DeleteFunc(c.pending, func(e model.KPIEntry) bool {
		_, ok := pushed[e.ID]
		return ok
	})
	c.lastSync = c.now()
	c.persistLocked(ctx)
	c.logger.Debug("entries synced", zap.Int("count", len(batch)))
	return nil
}

// PendingCount is the number of entries awaiting sync.
func (c *Cache) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Cache) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:     len(c.entries),
		Pending:     len(c.pending),
		LastSync:    c.lastSync,
		Initialized: c.initialized,
	}
}

func (c *Cache) Entries() []model.KPIEntry {
	return c.filter(func(model.KPIEntry) bool { return true })
}

func (c *Cache) Pending() []model.KPIEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.KPIEntry{}, c.pending...)
}

func (c *Cache) EntriesByKPI(kpiID string) []model.KPIEntry {
	return c.filter(func(e model.KPIEntry) bool { return e.KPIID == kpiID })
}

func (c *Cache) EntriesByEmployee(employeeID string) []model.KPIEntry {
	return c.filter(func(e model.KPIEntry) bool { return e.EmployeeID == employeeID })
}

func (c *Cache) EntriesByWeek(week string) []model.KPIEntry {
	return c.filter(func(e model.KPIEntry) bool { return e.Week == week })
}

func (c *Cache) filter(keep func(model.KPIEntry) bool) []model.KPIEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := []model.KPIEntry{}
	for _, e := range c.entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// Reset drops all cached state and deletes the persisted blob.
func (c *Cache) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	if err := c.storage.Delete(ctx, StorageKey); err != nil {
		c.logger.Error("failed to delete cache blob", zap.Error(err))
		return fmt.Errorf("delete cache blob: %w", err)
	}
	return nil
}

func (c *Cache) persistLocked(ctx context.Context) {
	data, err := json.Marshal(envelope{
		Version: SchemaVersion,
		State: persistedState{
			Entries:     c.entries,
			LastSync:    c.lastSync,
			PendingSync: c.pending,
		},
	})
	if err != nil {
		c.logger.Error("failed to encode cache", zap.Error(err))
		return
	}
	if err := c.storage.Save(ctx, StorageKey, data); err != nil {
		c.logger.Error("failed to save to cache", zap.Error(err))
	}
}
