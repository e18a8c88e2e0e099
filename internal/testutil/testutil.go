// Package testutil provides shared test helpers for setting up databases and
// seeding accounts, categories and posts.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Epoch is the base timestamp used by fixtures.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a function yielding Epoch, Epoch+1s, Epoch+2s, ... so that
// records created in sequence have strictly increasing timestamps.
func Clock() func() time.Time {
	var (
		mu sync.Mutex
		n  int
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return Epoch.Add(time.Duration(n) * time.Second)
	}
}

// Account seeds an active account named after its id.
func Account(t *testing.T, db *store.DB, id string) models.Account {
	t.Helper()
	a := models.Account{ID: id, DisplayName: "User " + id, Active: true}
	if err := db.UpsertAccount(context.Background(), a); err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
	return a
}

// Category seeds a category whose slug equals its id.
func Category(t *testing.T, db *store.DB, id string) models.Category {
	t.Helper()
	c := models.Category{ID: id, Name: "Category " + id, Slug: id, Color: "#336699"}
	if err := db.UpsertCategory(context.Background(), c); err != nil {
		t.Fatalf("seed category %s: %v", id, err)
	}
	return c
}

// PostSpec describes a post fixture. Published defaults to true unless Draft is set.
type PostSpec struct {
	ID         string
	AuthorID   string
	CategoryID string
	Views      int64
	CreatedAt  time.Time
	Draft      bool
}

// Post seeds a post. The author (and category, if set) must exist.
func Post(t *testing.T, db *store.DB, ps PostSpec) models.Post {
	t.Helper()
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = Epoch
	}
	p := models.Post{
		ID:         ps.ID,
		Title:      "Post " + ps.ID,
		Slug:       "post-" + ps.ID,
		Content:    fmt.Sprintf("Body of %s", ps.ID),
		Excerpt:    "Excerpt of " + ps.ID,
		Published:  !ps.Draft,
		AuthorID:   ps.AuthorID,
		CategoryID: ps.CategoryID,
		ViewCount:  ps.Views,
		CreatedAt:  ps.CreatedAt,
	}
	if p.Published {
		at := ps.CreatedAt
		p.PublishedAt = &at
	}
	if err := db.UpsertPost(context.Background(), store.PostRecord{Post: p}); err != nil {
		t.Fatalf("seed post %s: %v", ps.ID, err)
	}
	return p
}

// Like seeds a like edge.
func Like(t *testing.T, db *store.DB, userID, postID string) {
	t.Helper()
	liked, err := db.ToggleLike(context.Background(), userID, postID, Epoch)
	if err != nil {
		t.Fatalf("seed like %s→%s: %v", userID, postID, err)
	}
	if !liked {
		t.Fatalf("seed like %s→%s: edge already existed", userID, postID)
	}
}
