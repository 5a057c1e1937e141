package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/identity"
	"bilancio/internal/remote"
)

type fakeLocal struct {
	mu     sync.Mutex
	store  core.Store
	writes int
}

func newFakeLocal(store core.Store) *fakeLocal {
	if store == nil {
		store = core.Store{}
	}
	return &fakeLocal{store: store}
}

func (f *fakeLocal) Read(ctx context.Context) core.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Clone()
}

func (f *fakeLocal) Write(ctx context.Context, store core.Store) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store = store.Clone()
	f.writes++
}

func (f *fakeLocal) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type upsertCall struct {
	userID string
	store  core.Store
}

type fakeRemote struct {
	mu        sync.Mutex
	docs      map[string]core.Store
	fetchErr  error
	upsertErr error
	upserts   []upsertCall
}

var _ remote.StoreClient = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]core.Store{}}
}

func (f *fakeRemote) FetchForUser(ctx context.Context, userID string) (core.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	doc, ok := f.docs[userID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return doc.Clone(), nil
}

func (f *fakeRemote) UpsertForUser(ctx context.Context, userID string, store core.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.docs[userID] = store.Clone()
	f.upserts = append(f.upserts, upsertCall{userID: userID, store: store.Clone()})
	return nil
}

func (f *fakeRemote) upsertCalls() []upsertCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upsertCall{}, f.upserts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func addExpense(t *testing.T, c *Coordinator, name string, cents int64) {
	t.Helper()
	err := c.Mutate(context.Background(), 2024, 0, func(rec *core.MonthRecord) error {
		rec.Expenses["2024-01-05"] = append(rec.Expenses["2024-01-05"],
			core.Expense{Name: name, Amount: core.Money{Cents: cents}})
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
}

func TestNewStartsFromLocalCache(t *testing.T) {
	cached := core.Store{}
	cached.EnsureMonth("2024-01").Budget = core.Money{Cents: 7700}
	local := newFakeLocal(cached)

	c := New(context.Background(), local, nil, nil, Config{})
	defer c.Close()

	if c.Authenticated() {
		t.Error("fresh coordinator should be anonymous")
	}
	if got := c.MonthRecord(2024, 0).Budget.Cents; got != 7700 {
		t.Errorf("budget = %d, want the cached 7700", got)
	}
}

func TestMutatePersistsLocallyAndDebouncesRemote(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: 20 * time.Millisecond})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})

	addExpense(t, c, "one", 100)
	addExpense(t, c, "two", 200)
	addExpense(t, c, "three", 300)

	// Local cache has the latest state before the remote write fires.
	if got := local.Read(context.Background()).Month("2024-01").Expenses["2024-01-05"]; len(got) != 3 {
		t.Fatalf("local cache holds %d expenses, want 3", len(got))
	}

	waitFor(t, func() bool { return len(rem.upsertCalls()) > 0 })
	time.Sleep(50 * time.Millisecond)

	calls := rem.upsertCalls()
	if len(calls) != 1 {
		t.Fatalf("burst produced %d remote writes, want 1", len(calls))
	}
	if calls[0].userID != "u1" {
		t.Errorf("upsert user = %q, want u1", calls[0].userID)
	}
	if got := calls[0].store.Month("2024-01").Expenses["2024-01-05"]; len(got) != 3 {
		t.Errorf("upsert carried %d expenses, want the final 3", len(got))
	}
}

func TestConcurrentMutationsPushFinalState(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: time.Hour})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Mutate(context.Background(), 2024, 0, func(rec *core.MonthRecord) error {
				rec.Expenses["2024-01-05"] = append(rec.Expenses["2024-01-05"],
					core.Expense{Name: fmt.Sprintf("e%d", i), Amount: core.Money{Cents: 100}})
				return nil
			})
		}(i)
	}
	wg.Wait()
	c.Flush()

	calls := rem.upsertCalls()
	if len(calls) != 1 {
		t.Fatalf("flushed %d remote writes, want 1", len(calls))
	}
	// The write that fires must carry the last committed state, never a
	// snapshot that an interleaved mutation has already superseded.
	if got := len(calls[0].store.Month("2024-01").Expenses["2024-01-05"]); got != n {
		t.Errorf("remote write carried %d expenses, want all %d", got, n)
	}
}

func TestMutateWhileAnonymousStaysLocal(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: 10 * time.Millisecond})
	defer c.Close()

	addExpense(t, c, "offline", 500)
	time.Sleep(50 * time.Millisecond)

	if len(rem.upsertCalls()) != 0 {
		t.Error("anonymous mutation reached the remote store")
	}
	if local.writeCount() != 1 {
		t.Errorf("local writes = %d, want 1", local.writeCount())
	}
}

func TestMutateEditErrorChangesNothing(t *testing.T) {
	local := newFakeLocal(nil)
	c := New(context.Background(), local, nil, nil, Config{})
	defer c.Close()

	sentinel := errors.New("rejected")
	err := c.Mutate(context.Background(), 2024, 0, func(rec *core.MonthRecord) error {
		rec.Budget = core.Money{Cents: 9999}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Mutate error = %v, want the edit error", err)
	}
	if !c.MonthRecord(2024, 0).Budget.IsZero() {
		t.Error("failed edit leaked into the store")
	}
	if local.writeCount() != 0 {
		t.Error("failed edit was persisted")
	}
}

func TestSignInRemoteWins(t *testing.T) {
	localStore := core.Store{}
	localStore.EnsureMonth("2024-01").Budget = core.Money{Cents: 111}
	local := newFakeLocal(localStore)

	rem := newFakeRemote()
	remoteStore := core.Store{}
	remoteStore.EnsureMonth("2024-01").Budget = core.Money{Cents: 999}
	rem.docs["u1"] = remoteStore

	c := New(context.Background(), local, rem, nil, Config{})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})

	if got := c.MonthRecord(2024, 0).Budget.Cents; got != 999 {
		t.Errorf("budget after sign-in = %d, want the remote 999", got)
	}
	// The adopted remote state replaces the cached copy.
	if got := local.Read(context.Background()).Month("2024-01").Budget.Cents; got != 999 {
		t.Errorf("cached budget = %d, want 999", got)
	}
	if len(rem.upsertCalls()) != 0 {
		t.Error("sign-in with an existing remote document should not upsert")
	}
}

func TestSignInMigratesLocalDataOnce(t *testing.T) {
	localStore := core.Store{}
	localStore.EnsureMonth("2024-01").Budget = core.Money{Cents: 4200}
	local := newFakeLocal(localStore)
	rem := newFakeRemote()

	c := New(context.Background(), local, rem, nil, Config{})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "first-login"})

	calls := rem.upsertCalls()
	if len(calls) != 1 {
		t.Fatalf("first login produced %d upserts, want exactly 1", len(calls))
	}
	if got := calls[0].store.Month("2024-01").Budget.Cents; got != 4200 {
		t.Errorf("seeded budget = %d, want the local 4200", got)
	}
	if got := c.MonthRecord(2024, 0).Budget.Cents; got != 4200 {
		t.Errorf("budget after migration = %d, want 4200", got)
	}
}

func TestSignInEmptyLocalNoMigration(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()

	c := New(context.Background(), local, rem, nil, Config{})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "fresh"})

	if len(rem.upsertCalls()) != 0 {
		t.Error("empty local store should not seed the remote")
	}
	if !c.Snapshot().IsEmpty() {
		t.Error("fresh user should start empty")
	}
}

func TestSignInFetchFailureFallsBackToLocal(t *testing.T) {
	localStore := core.Store{}
	localStore.EnsureMonth("2024-01").Budget = core.Money{Cents: 555}
	local := newFakeLocal(localStore)

	rem := newFakeRemote()
	rem.fetchErr = errors.New("backend down")

	c := New(context.Background(), local, rem, nil, Config{})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})

	if got := c.MonthRecord(2024, 0).Budget.Cents; got != 555 {
		t.Errorf("budget = %d, want the local 555", got)
	}
	// An outage must not trigger the first-login seeding path.
	if len(rem.upsertCalls()) != 0 {
		t.Error("fetch failure caused an upsert")
	}
	if !c.Authenticated() {
		t.Error("fetch failure should not undo the sign-in")
	}
}

func TestSignOutKeepsLocalCache(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: 10 * time.Millisecond})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})
	addExpense(t, c, "kept", 100)
	c.SignOut(context.Background())

	if c.Authenticated() {
		t.Error("still authenticated after sign-out")
	}
	if got := local.Read(context.Background()).Month("2024-01").Expenses["2024-01-05"]; len(got) != 1 {
		t.Error("sign-out wiped the local cache")
	}
	if got := c.MonthRecord(2024, 0).Expenses["2024-01-05"]; len(got) != 1 {
		t.Error("store should revert to the cache content, which still has the expense")
	}
}

func TestSignOutFlushesPendingWrite(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: time.Hour})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})
	addExpense(t, c, "pending", 100)
	c.SignOut(context.Background())

	calls := rem.upsertCalls()
	if len(calls) != 1 {
		t.Fatalf("sign-out flushed %d writes, want 1", len(calls))
	}
	if calls[0].userID != "u1" {
		t.Errorf("flushed write went to %q, want u1", calls[0].userID)
	}
}

func TestSignInFlushesPreviousIdentityWrite(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: time.Hour})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "old"})
	addExpense(t, c, "theirs", 100)

	c.SignIn(context.Background(), identity.Session{UserID: "new"})

	calls := rem.upsertCalls()
	if len(calls) == 0 {
		t.Fatal("pending write for the previous identity was dropped")
	}
	// The flush fires before the new identity loads, keyed by the user it
	// was scheduled under.
	if calls[0].userID != "old" {
		t.Errorf("first write went to %q, want old", calls[0].userID)
	}
	if got := calls[0].store.Month("2024-01").Expenses["2024-01-05"]; len(got) != 1 {
		t.Error("flushed write lost the pending expense")
	}
}

func TestRemoteFailureDoesNotAffectLocal(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	rem.upsertErr = errors.New("backend down")

	c := New(context.Background(), local, rem, nil, Config{DebounceWindow: 10 * time.Millisecond})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})
	addExpense(t, c, "survives", 100)
	time.Sleep(50 * time.Millisecond)

	if got := c.MonthRecord(2024, 0).Expenses["2024-01-05"]; len(got) != 1 {
		t.Error("remote failure lost the in-memory edit")
	}
	if got := local.Read(context.Background()).Month("2024-01").Expenses["2024-01-05"]; len(got) != 1 {
		t.Error("remote failure lost the cached edit")
	}
}

func TestRefreshAdoptsRemote(t *testing.T) {
	local := newFakeLocal(nil)
	rem := newFakeRemote()
	c := New(context.Background(), local, rem, nil, Config{})
	defer c.Close()

	c.SignIn(context.Background(), identity.Session{UserID: "u1"})

	// Another device writes a newer document.
	updated := core.Store{}
	updated.EnsureMonth("2024-05").Budget = core.Money{Cents: 8800}
	rem.mu.Lock()
	rem.docs["u1"] = updated
	rem.mu.Unlock()

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := c.MonthRecord(2024, 4).Budget.Cents; got != 8800 {
		t.Errorf("budget after refresh = %d, want 8800", got)
	}
}

func TestRefreshWhileAnonymousIsNoop(t *testing.T) {
	c := New(context.Background(), newFakeLocal(nil), newFakeRemote(), nil, Config{})
	defer c.Close()

	if err := c.Refresh(context.Background()); err != nil {
		t.Errorf("anonymous Refresh returned %v", err)
	}
}

func TestActiveMonth(t *testing.T) {
	c := New(context.Background(), newFakeLocal(nil), nil, nil, Config{})
	defer c.Close()

	c.SetActiveMonth(2025, 5)
	if got := c.ActiveMonthKey(); got != "2025-06" {
		t.Errorf("active key = %q, want 2025-06", got)
	}

	years := c.SummarizeAllYears()
	if len(years) != 1 || years[0].Months[0].Key != "2025-06" {
		t.Errorf("active month missing from rollup: %+v", years)
	}
}

func TestMonthRecordReadDoesNotGrowStore(t *testing.T) {
	c := New(context.Background(), newFakeLocal(nil), nil, nil, Config{})
	defer c.Close()

	_ = c.MonthRecord(2030, 7)
	_ = c.SummarizeMonth("2030-08")

	if !c.Snapshot().IsEmpty() {
		t.Error("reads grew the store")
	}
}
