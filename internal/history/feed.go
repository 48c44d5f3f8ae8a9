package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"

	"github.com/tinashem/speechai/internal/identity"
)

// Feed binds the store to the current identity and keeps the in-memory
// view the UI reads. On login it loads that user's items, on logout it
// clears the view. A read that is still in flight when the identity
// changes resolves against a stale generation and is discarded.
type Feed struct {
	store *Store
	ids   identity.Provider
	log   *logger.ZapLogger

	mu     sync.Mutex
	items  []Item
	filter ItemType
	gen    int

	onChange    func([]Item)
	unsubscribe func()
}

func NewFeed(store *Store, ids identity.Provider, log *logger.ZapLogger) *Feed {
	f := &Feed{store: store, ids: ids, log: log}
	f.unsubscribe = ids.Subscribe(func(id identity.Identity, ok bool) {
		f.mu.Lock()
		f.gen++
		f.filter = ""
		if !ok {
			f.items = nil
			gen := f.gen
			f.mu.Unlock()
			f.notify(gen)
			return
		}
		gen := f.gen
		f.mu.Unlock()
		go f.load(context.Background(), gen, id.UID, "")
	})
	return f
}

// OnChange registers a callback invoked with a snapshot of the view
// whenever it is replaced.
func (f *Feed) OnChange(fn func([]Item)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Close detaches the feed from identity events.
func (f *Feed) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}

// Items returns a snapshot of the current view, newest first.
func (f *Feed) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

// Refresh re-queries the store for the current user, keeping the active
// type filter.
func (f *Feed) Refresh(ctx context.Context) error {
	id, ok := f.ids.Current()
	if !ok {
		f.mu.Lock()
		f.gen++
		f.items = nil
		gen := f.gen
		f.mu.Unlock()
		f.notify(gen)
		return nil
	}
	f.mu.Lock()
	f.gen++
	gen := f.gen
	filter := f.filter
	f.mu.Unlock()
	return f.load(ctx, gen, id.UID, filter)
}

// FilterHistoryByType replaces the view with only items of type t.
// An empty type restores the unfiltered view.
func (f *Feed) FilterHistoryByType(ctx context.Context, t ItemType) error {
	f.mu.Lock()
	f.filter = t
	f.mu.Unlock()
	return f.Refresh(ctx)
}

func (f *Feed) load(ctx context.Context, gen int, uid string, t ItemType) error {
	items, err := f.store.GetHistoryItems(ctx, uid, t)
	if err != nil {
		if f.log != nil {
			f.log.Log(logger.LogEntry{
				Level:   "error",
				Message: fmt.Sprintf("failed to load history for %s: %v", uid, err),
				Service: "history",
				Error:   err,
			})
		}
		return err
	}

	f.mu.Lock()
	if gen != f.gen {
		// identity changed while the query was in flight
		f.mu.Unlock()
		return nil
	}
	f.items = items
	f.mu.Unlock()
	f.notify(gen)
	return nil
}

// AddHistoryItem stamps the owner and a default timestamp, generates an
// id if the item has none, persists it, and prepends it to the view.
func (f *Feed) AddHistoryItem(ctx context.Context, item Item) (string, error) {
	id, ok := f.ids.Current()
	if !ok {
		return "", ErrNotSignedIn
	}

	m := item.meta()
	m.UserID = id.UID
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	stored, err := f.store.AddHistoryItem(ctx, item)
	if err != nil {
		if f.log != nil {
			f.log.Log(logger.LogEntry{
				Level:   "error",
				Message: fmt.Sprintf("failed to save history item %s: %v", m.ID, err),
				Service: "history",
				Error:   err,
			})
		}
		return "", err
	}

	f.mu.Lock()
	f.gen++ // any refresh still in flight must not overwrite this write
	f.items = append([]Item{item}, f.items...)
	gen := f.gen
	f.mu.Unlock()
	f.notify(gen)
	return stored, nil
}

// GetHistoryItem reads one record by id.
func (f *Feed) GetHistoryItem(ctx context.Context, id string) (Item, error) {
	if _, ok := f.ids.Current(); !ok {
		return nil, ErrNotSignedIn
	}
	return f.store.GetHistoryItem(ctx, id)
}

// DeleteHistoryItem removes one record and drops it from the view.
func (f *Feed) DeleteHistoryItem(ctx context.Context, id string) error {
	if _, ok := f.ids.Current(); !ok {
		return ErrNotSignedIn
	}
	if err := f.store.DeleteHistoryItem(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	f.gen++
	kept := f.items[:0:0]
	for _, it := range f.items {
		if it.ItemID() != id {
			kept = append(kept, it)
		}
	}
	f.items = kept
	gen := f.gen
	f.mu.Unlock()
	f.notify(gen)
	return nil
}

// ClearHistory removes every record of the current user.
func (f *Feed) ClearHistory(ctx context.Context) error {
	id, ok := f.ids.Current()
	if !ok {
		return ErrNotSignedIn
	}
	if err := f.store.ClearHistory(ctx, id.UID); err != nil {
		return err
	}
	f.mu.Lock()
	f.gen++
	f.items = nil
	gen := f.gen
	f.mu.Unlock()
	f.notify(gen)
	return nil
}

func (f *Feed) notify(gen int) {
	f.mu.Lock()
	fn := f.onChange
	stale := gen != f.gen
	var snapshot []Item
	if fn != nil && !stale {
		snapshot = make([]Item, len(f.items))
		copy(snapshot, f.items)
	}
	f.mu.Unlock()
	if fn != nil && !stale {
		fn(snapshot)
	}
}
