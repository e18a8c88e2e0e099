package hydrate

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
	"github.com/starford/inkwell/internal/testutil"
)

func TestCardsAttachSummaries(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Account(t, db, "b")
	testutil.Category(t, db, "go")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "a", CategoryID: "go", Views: 7})
	testutil.Post(t, db, testutil.PostSpec{ID: "p2", AuthorID: "b"})
	testutil.Like(t, db, "b", "p1")

	rows, _, err := db.ListPublishedPosts(context.Background(), store.PostFilter{}, store.OrderPopular, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	cards, err := New(db, nil).Cards(context.Background(), rows)
	if err != nil {
		t.Fatalf("Cards: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "p1" {
		t.Fatalf("cards = %+v", cards)
	}
	if cards[0].Author.DisplayName != "User a" || cards[0].Category == nil || cards[0].Category.Slug != "go" {
		t.Errorf("p1 card = %+v", cards[0])
	}
	if cards[0].LikeCount != 1 || cards[0].ViewCount != 7 {
		t.Errorf("p1 counts like=%d views=%d", cards[0].LikeCount, cards[0].ViewCount)
	}
	if cards[1].Category != nil {
		t.Errorf("p2 has no category, got %+v", cards[1].Category)
	}

	views, _ := db.PostViewCount(context.Background(), "p1")
	if views != 7 {
		t.Errorf("hydration must not touch views, got %d", views)
	}
}

type failingSource struct{}

func (failingSource) GetAccountSummary(context.Context, string) (*models.AccountSummary, error) {
	return nil, errors.New("database is locked")
}

func (failingSource) GetCategory(context.Context, string) (*models.Category, error) {
	return nil, store.ErrNotFound
}

func TestCardsStoreFailureIsOpaque(t *testing.T) {
	rows := []store.PostRow{{Post: models.Post{ID: "p1", AuthorID: "a"}}}
	_, err := New(failingSource{}, nil).Cards(context.Background(), rows)
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if err.Error() != apperr.ErrUnavailable.Error() {
		t.Errorf("store text leaked: %q", err.Error())
	}
}
