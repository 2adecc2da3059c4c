package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/snowwhitepl/wydatki/internal/core"
	"github.com/snowwhitepl/wydatki/internal/storage"
)

// Ledger owns the in-memory entry collection for the lifetime of the
// process and flushes it to the store after every mutation. The store
// holds the only durable copy. A mutex stands in for the single event
// thread of the platform this behavior was modeled on: handlers may
// run concurrently, mutations on the collection may not.
type Ledger struct {
	mu      sync.Mutex
	store   *storage.Store
	entries []core.Entry
}

// NewLedger loads the collection once from the store. Corrupt or
// absent stored state comes back as an empty collection.
func NewLedger(ctx context.Context, store *storage.Store) *Ledger {
	entries := store.LoadAll(ctx)
	slog.InfoContext(ctx, "Ledger loaded", "count", len(entries))
	return &Ledger{store: store, entries: entries}
}

// Add validates the amount strictly (comma or dot separator, finite,
// greater than zero), fills in defaults and appends the new entry.
// Invalid amounts return core.ErrInvalidAmount and leave the
// collection untouched.
func (l *Ledger) Add(ctx context.Context, amount, category, date, note string) (core.Entry, error) {
	v, err := core.ParseAmount(amount)
	if err != nil {
		return core.Entry{}, err
	}

	e := core.Normalize(core.Entry{
		ID:       core.NewID(),
		Amount:   v,
		Category: strings.TrimSpace(category),
		Date:     strings.TrimSpace(date),
		Note:     strings.TrimSpace(note),
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if err := l.store.SaveAll(ctx, l.entries); err != nil {
		l.entries = l.entries[:len(l.entries)-1]
		return core.Entry{}, fmt.Errorf("persist entries: %w", err)
	}

	slog.InfoContext(ctx, "Entry added", "id", e.ID, "amount", e.Amount, "category", e.Category, "date", e.Date)
	return e, nil
}

// Delete removes at most one entry by id, preserving the order of the
// survivors. A missing id is a no-op; the collection is persisted
// either way.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries
	kept := make([]core.Entry, 0, len(prev))
	found := false
	for _, e := range prev {
		if !found && e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}

	l.entries = kept
	if err := l.store.SaveAll(ctx, l.entries); err != nil {
		l.entries = prev
		return false, fmt.Errorf("persist entries: %w", err)
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id, "found", found)
	return found, nil
}

// Clear replaces the collection with an empty one. The confirmation
// gate lives in the UI; by the time Clear is called the user has
// already accepted.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries
	l.entries = nil
	if err := l.store.SaveAll(ctx, nil); err != nil {
		l.entries = prev
		return fmt.Errorf("persist entries: %w", err)
	}

	slog.InfoContext(ctx, "All entries cleared", "removed", len(prev))
	return nil
}

// Import parses the given JSON document, normalizes every element and
// replaces the whole collection. Anything but a top-level array fails
// with the underlying error and leaves the existing collection
// untouched. There is no partial import and no merge.
func (l *Ledger) Import(ctx context.Context, data []byte) (int, error) {
	entries, err := core.DecodeEntries(data)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries
	l.entries = entries
	if err := l.store.SaveAll(ctx, l.entries); err != nil {
		l.entries = prev
		return 0, fmt.Errorf("persist entries: %w", err)
	}

	slog.InfoContext(ctx, "Entries imported", "count", len(entries), "replaced", len(prev))
	return len(entries), nil
}

// Export serializes the entire collection, not just any filtered view,
// as pretty-printed JSON in the durable contract shape.
func (l *Ledger) Export() ([]byte, error) {
	l.mu.Lock()
	entries := l.entries
	if entries == nil {
		entries = []core.Entry{}
	}
	l.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return data, nil
}

// Entries returns a copy of the collection in insertion order.
func (l *Ledger) Entries() []core.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Entry(nil), l.entries...)
}

// Months returns the distinct months present, most recent first.
func (l *Ledger) Months() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.MonthOptions(l.entries)
}

// View returns the entries matching the month filter and their total.
func (l *Ledger) View(month string) ([]core.Entry, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.FilterMonth(l.entries, month)
}
