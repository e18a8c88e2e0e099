package related

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/testutil"
)

func ids(cards []models.PostCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestRelatedBackfillsWithMostViewed(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Category(t, db, "c")
	testutil.Category(t, db, "other")
	testutil.Post(t, db, testutil.PostSpec{ID: "X", AuthorID: "a", CategoryID: "c", Views: 1000})
	testutil.Post(t, db, testutil.PostSpec{ID: "Y", AuthorID: "a", CategoryID: "c", Views: 1})
	testutil.Post(t, db, testutil.PostSpec{ID: "Z1", AuthorID: "a", CategoryID: "other", Views: 50})
	testutil.Post(t, db, testutil.PostSpec{ID: "Z2", AuthorID: "a", Views: 90})
	testutil.Post(t, db, testutil.PostSpec{ID: "Z3", AuthorID: "a", Views: 10})
	testutil.Post(t, db, testutil.PostSpec{ID: "hidden", AuthorID: "a", CategoryID: "c", Views: 5000, Draft: true})

	r := NewRecommender(db, hydrate.New(db, nil))
	got, err := r.RelatedPosts(context.Background(), "X", 3)
	if err != nil {
		t.Fatalf("RelatedPosts: %v", err)
	}
	if fmt.Sprint(ids(got)) != "[Y Z2 Z1]" {
		t.Errorf("related = %v, want [Y Z2 Z1]", ids(got))
	}
}

func TestRelatedPrefersCategoryNewestFirst(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Category(t, db, "c")
	for i := 0; i < 4; i++ {
		testutil.Post(t, db, testutil.PostSpec{
			ID: fmt.Sprintf("c%d", i), AuthorID: "a", CategoryID: "c",
			CreatedAt: testutil.Epoch.Add(time.Duration(i) * time.Hour),
		})
	}
	testutil.Post(t, db, testutil.PostSpec{ID: "popular", AuthorID: "a", Views: 9999})

	r := NewRecommender(db, hydrate.New(db, nil))
	got, err := r.RelatedPosts(context.Background(), "c0", 2)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids(got)) != "[c3 c2]" {
		t.Errorf("related = %v, want [c3 c2]", ids(got))
	}
}

func TestRelatedLengthAndUniqueness(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Post(t, db, testutil.PostSpec{ID: "solo", AuthorID: "a"})
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "a", Views: 3})
	testutil.Post(t, db, testutil.PostSpec{ID: "p2", AuthorID: "a", Views: 2})

	r := NewRecommender(db, hydrate.New(db, nil))
	got, err := r.RelatedPosts(context.Background(), "solo", 10)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids(got)) != "[p1 p2]" {
		t.Errorf("related = %v, want every other published post", ids(got))
	}
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.ID] || c.ID == "solo" {
			t.Errorf("duplicate or source post %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestRelatedUnknownPost(t *testing.T) {
	db := testutil.TestDB(t)
	r := NewRecommender(db, hydrate.New(db, nil))
	if _, err := r.RelatedPosts(context.Background(), "ghost", 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRelatedFromDraftSource(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Category(t, db, "c")
	testutil.Post(t, db, testutil.PostSpec{ID: "draft", AuthorID: "a", CategoryID: "c", Draft: true})
	testutil.Post(t, db, testutil.PostSpec{ID: "live", AuthorID: "a", CategoryID: "c"})

	got, err := NewRecommender(db, hydrate.New(db, nil)).RelatedPosts(context.Background(), "draft", 0)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids(got)) != "[live]" {
		t.Errorf("related = %v, want [live]", ids(got))
	}
}
