// Package session owns the live editing session: the in-memory store,
// the bound identity, and the two-tier write path. Every mutation is
// persisted to the local cache synchronously and propagated to the
// remote store best-effort after a debounce window, so local durability
// is unconditional while remote writes are coalesced per burst of edits.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/events"
	"bilancio/internal/identity"
	"bilancio/internal/remote"
	"bilancio/internal/summary"
)

// LocalStore is the device-local cache tier. Read never fails and Write
// never reports failure; both degrade internally.
type LocalStore interface {
	Read(ctx context.Context) core.Store
	Write(ctx context.Context, store core.Store)
}

// Config holds coordinator tuning.
type Config struct {
	// DebounceWindow is the quiet period after the last mutation before
	// a remote write is issued (default: 800ms).
	DebounceWindow time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{DebounceWindow: 800 * time.Millisecond}
}

// Coordinator reconciles the local cache with the remote store and serves
// the consumer-facing API. One coordinator handles one session at a time;
// its identity state is either anonymous or bound to a signed-in user.
type Coordinator struct {
	local  LocalStore
	remote remote.StoreClient
	events events.Publisher
	config Config

	mu          sync.Mutex
	session     identity.Session
	store       core.Store
	activeYear  int
	activeMonth int

	debounce *Debouncer
}

// New creates a coordinator in the anonymous state with the local cache
// content as its store. remoteClient and publisher may be nil; remote
// sync and notifications are then disabled.
func New(ctx context.Context, local LocalStore, remoteClient remote.StoreClient, publisher events.Publisher, config Config) *Coordinator {
	if config.DebounceWindow <= 0 {
		config.DebounceWindow = DefaultConfig().DebounceWindow
	}
	now := time.Now()
	return &Coordinator{
		local:       local,
		remote:      remoteClient,
		events:      publisher,
		config:      config,
		store:       local.Read(ctx),
		activeYear:  now.Year(),
		activeMonth: int(now.Month()) - 1,
		debounce:    NewDebouncer(config.DebounceWindow),
	}
}

// SignIn binds the session to an identity and runs the load protocol:
// the remote document wins when it exists; otherwise non-empty local
// data seeds the remote record (first-login migration); otherwise the
// store starts empty. Load failures degrade to the local copy.
func (c *Coordinator) SignIn(ctx context.Context, s identity.Session) {
	// A write still pending for the previous identity fires now, keyed
	// by its own user, so it cannot touch the new identity's document.
	c.debounce.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s

	if c.remote == nil {
		c.store = c.local.Read(ctx)
		return
	}

	remoteStore, err := c.remote.FetchForUser(ctx, s.UserID)
	switch {
	case err == nil:
		// Remote is authoritative: adopt it and overwrite any stale
		// local-only state from a previous identity.
		c.store = remoteStore
		c.local.Write(ctx, c.store)
		slog.InfoContext(ctx, "Loaded remote store", "user_id", s.UserID, "months", len(c.store))

	case errors.Is(err, remote.ErrNotFound):
		local := c.local.Read(ctx)
		if !local.IsEmpty() {
			// First login with pre-existing device data: seed the remote
			// record from it, once.
			if err := c.remote.UpsertForUser(ctx, s.UserID, local); err != nil {
				slog.WarnContext(ctx, "Failed to seed remote store from local data",
					"user_id", s.UserID, "error", err)
			} else {
				slog.InfoContext(ctx, "Migrated local data to remote store",
					"user_id", s.UserID, "months", len(local))
			}
		}
		c.store = local

	default:
		slog.WarnContext(ctx, "Remote fetch failed, continuing from local cache",
			"user_id", s.UserID, "error", err)
		c.store = c.local.Read(ctx)
	}
}

// SignOut unbinds the identity. The local cache content is kept so an
// offline-then-login flow still has its data; the in-memory store
// reverts to the cache content.
func (c *Coordinator) SignOut(ctx context.Context) {
	c.debounce.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = identity.Session{}
	c.store = c.local.Read(ctx)
}

// Session returns the bound identity, if any.
func (c *Coordinator) Session() (identity.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.session.UserID != ""
}

// Authenticated reports whether an identity is bound.
func (c *Coordinator) Authenticated() bool {
	_, ok := c.Session()
	return ok
}

// MonthRecord returns a copy of the record for (year, 0-based month).
// Reading a never-touched month yields a fresh empty record and does not
// grow the store.
func (c *Coordinator) MonthRecord(year, monthIndex int) core.MonthRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Month(core.MonthKey(year, monthIndex)).Clone()
}

// Mutate applies edit to the month's record and runs the write protocol:
// the updated store goes to the local cache synchronously, then a remote
// write is scheduled after the debounce window. A burst of mutations
// produces at most one remote write, carrying the last state. If edit
// returns an error nothing is changed or persisted.
func (c *Coordinator) Mutate(ctx context.Context, year, monthIndex int, edit func(*core.MonthRecord) error) error {
	c.mu.Lock()
	key := core.MonthKey(year, monthIndex)
	rec := c.store.Month(key).Clone()
	if err := edit(&rec); err != nil {
		c.mu.Unlock()
		return err
	}
	rec.Normalize()
	c.store[key] = &rec

	snapshot := c.store.Clone()
	uid := c.session.UserID
	c.local.Write(ctx, snapshot)

	// Scheduled under the lock so the last snapshot scheduled is the last
	// one committed; pushRemote never takes the lock.
	if uid != "" && c.remote != nil {
		c.debounce.Schedule(func() { c.pushRemote(uid, snapshot) })
	}
	c.mu.Unlock()
	return nil
}

// pushRemote performs the debounced remote write. It runs detached from
// any request context: a slow upsert only delays eventual consistency.
// Failures are not retried; the next mutation's write carries newer data
// anyway.
func (c *Coordinator) pushRemote(userID string, snapshot core.Store) {
	ctx := context.Background()
	if err := c.remote.UpsertForUser(ctx, userID, snapshot); err != nil {
		slog.WarnContext(ctx, "Remote write failed, local copy remains current",
			"user_id", userID, "error", err)
		return
	}
	if c.events != nil {
		if err := c.events.PublishStoreUpdated(ctx, userID, time.Now()); err != nil {
			slog.WarnContext(ctx, "Failed to publish store updated event",
				"user_id", userID, "error", err)
		}
	}
}

// Refresh re-fetches the remote document and adopts it (remote wins).
// Used when another device announces a change. No-op while anonymous.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.UserID == "" || c.remote == nil {
		return nil
	}
	remoteStore, err := c.remote.FetchForUser(ctx, c.session.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		return err
	}
	c.store = remoteStore
	c.local.Write(ctx, c.store)
	return nil
}

// SetActiveMonth records the month the user is currently viewing. The
// active month always appears in the year rollup, even while empty.
func (c *Coordinator) SetActiveMonth(year, monthIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeYear = year
	c.activeMonth = monthIndex
}

// ActiveMonthKey returns the key of the currently viewed month.
func (c *Coordinator) ActiveMonthKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.MonthKey(c.activeYear, c.activeMonth)
}

// SummarizeMonth rolls up a single month key.
func (c *Coordinator) SummarizeMonth(key string) summary.MonthSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary.Month(c.store, key)
}

// SummarizeAllYears rolls up every recorded year, newest first, with the
// active month always included.
func (c *Coordinator) SummarizeAllYears() []summary.YearSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary.AllYears(c.store, core.MonthKey(c.activeYear, c.activeMonth))
}

// CategoryBreakdown groups a month's expenses by category.
func (c *Coordinator) CategoryBreakdown(year, monthIndex int) []summary.CategoryTotal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary.CategoryBreakdown(c.store, core.MonthKey(year, monthIndex))
}

// DailyAverage returns the month's average daily spend to date.
func (c *Coordinator) DailyAverage(key string) core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary.DailyAverage(c.store, key, time.Now())
}

// DaySummary totals one calendar day.
func (c *Coordinator) DaySummary(year, monthIndex, day int) summary.DayTotal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary.Day(c.store, year, monthIndex, day)
}

// Snapshot returns a deep copy of the current store.
func (c *Coordinator) Snapshot() core.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clone()
}

// Flush fires any pending debounced remote write immediately. Call on
// graceful shutdown so the last burst of edits reaches the remote store.
func (c *Coordinator) Flush() {
	c.debounce.Flush()
}

// Close flushes pending work and releases the timer.
func (c *Coordinator) Close() error {
	c.debounce.Flush()
	c.debounce.Stop()
	return nil
}
