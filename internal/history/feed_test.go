package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinashem/speechai/internal/identity"
)

func newTestFeed(t *testing.T) (*Feed, *identity.Session, *Store) {
	t.Helper()
	store := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "history.db")}, testLogger(), nil)
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	session := identity.NewSession()
	feed := NewFeed(store, session, testLogger())
	t.Cleanup(feed.Close)
	return feed, session, store
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestFeedRequiresUser(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	_, err := feed.AddHistoryItem(context.Background(), &Transcription{Language: "en", Text: "x"})
	if !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("err = %v, want ErrNotSignedIn", err)
	}
	if items := feed.Items(); len(items) != 0 {
		t.Errorf("signed-out feed has %d items", len(items))
	}
}

func TestFeedStampsOwnerAndTimestamp(t *testing.T) {
	ctx := context.Background()
	feed, session, store := newTestFeed(t)
	session.SetUser(identity.Identity{UID: "u1"})

	before := time.Now().UnixMilli()
	id, err := feed.AddHistoryItem(ctx, &Transcription{Language: "en", Text: "hello"})
	if err != nil {
		t.Fatalf("AddHistoryItem: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	got, err := store.GetHistoryItem(ctx, id)
	if err != nil {
		t.Fatalf("GetHistoryItem: %v", err)
	}
	if got.Owner() != "u1" {
		t.Errorf("owner = %q, want u1", got.Owner())
	}
	if got.CreatedAt() < before {
		t.Errorf("timestamp %d not stamped", got.CreatedAt())
	}
	if items := feed.Items(); len(items) != 1 || items[0].ItemID() != id {
		t.Errorf("view not updated: %v", items)
	}
}

func TestFeedReactsToIdentityChange(t *testing.T) {
	ctx := context.Background()
	feed, session, store := newTestFeed(t)

	for _, seed := range []struct {
		id, user string
	}{{"a", "alice"}, {"b", "bob"}} {
		if _, err := store.AddHistoryItem(ctx, &Transcription{
			Meta:     Meta{ID: seed.id, UserID: seed.user, Timestamp: 1},
			Language: "en", Text: "t",
		}); err != nil {
			t.Fatal(err)
		}
	}

	session.SetUser(identity.Identity{UID: "alice"})
	waitFor(t, func() bool {
		items := feed.Items()
		return len(items) == 1 && items[0].Owner() == "alice"
	})

	session.SetUser(identity.Identity{UID: "bob"})
	waitFor(t, func() bool {
		items := feed.Items()
		return len(items) == 1 && items[0].Owner() == "bob"
	})

	session.Clear()
	waitFor(t, func() bool { return len(feed.Items()) == 0 })
}

func TestFeedFilterByType(t *testing.T) {
	ctx := context.Background()
	feed, session, _ := newTestFeed(t)
	session.SetUser(identity.Identity{UID: "u1"})

	if _, err := feed.AddHistoryItem(ctx, &Transcription{Language: "en", Text: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := feed.AddHistoryItem(ctx, &Translation{
		SourceLanguage: "en", TargetLanguage: "sn", OriginalText: "a", TranslatedText: "b",
	}); err != nil {
		t.Fatal(err)
	}

	if err := feed.FilterHistoryByType(ctx, TypeTranslation); err != nil {
		t.Fatalf("FilterHistoryByType: %v", err)
	}
	items := feed.Items()
	if len(items) != 1 || items[0].Type() != TypeTranslation {
		t.Fatalf("filtered view = %v", items)
	}

	if err := feed.FilterHistoryByType(ctx, ""); err != nil {
		t.Fatalf("FilterHistoryByType: %v", err)
	}
	if len(feed.Items()) != 2 {
		t.Errorf("unfiltered view = %v", feed.Items())
	}
}

func TestFeedDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	feed, session, _ := newTestFeed(t)
	session.SetUser(identity.Identity{UID: "u1"})

	id1, err := feed.AddHistoryItem(ctx, &Transcription{Language: "en", Text: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := feed.AddHistoryItem(ctx, &Transcription{Language: "en", Text: "b"}); err != nil {
		t.Fatal(err)
	}

	if err := feed.DeleteHistoryItem(ctx, id1); err != nil {
		t.Fatalf("DeleteHistoryItem: %v", err)
	}
	if items := feed.Items(); len(items) != 1 {
		t.Fatalf("view after delete = %v", items)
	}

	if err := feed.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if items := feed.Items(); len(items) != 0 {
		t.Fatalf("view after clear = %v", items)
	}
}
