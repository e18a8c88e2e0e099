package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/testutil"
)

func TestToggleLikeParity(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "author")
	testutil.Account(t, db, "reader")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "author"})
	svc := NewService(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := svc.ToggleLike(ctx, "reader", "p1")
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		wantLiked := i%2 == 1
		if res.Liked != wantLiked {
			t.Errorf("after %d toggles liked = %v, want %v", i, res.Liked, wantLiked)
		}
		wantCount := int64(0)
		if wantLiked {
			wantCount = 1
		}
		if res.LikeCount != wantCount {
			t.Errorf("after %d toggles count = %d, want %d", i, res.LikeCount, wantCount)
		}
	}
}

func TestLikeCountMatchesDistinctLikers(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "author")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "author"})
	svc := NewService(db)
	ctx := context.Background()

	const readers = 12
	for i := 0; i < readers; i++ {
		testutil.Account(t, db, fmt.Sprintf("r%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.ToggleLike(ctx, id, "p1"); err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}(fmt.Sprintf("r%d", i))
	}
	wg.Wait()

	// Odd-indexed readers take their like back.
	for i := 1; i < readers; i += 2 {
		if _, err := svc.ToggleLike(ctx, fmt.Sprintf("r%d", i), "p1"); err != nil {
			t.Fatal(err)
		}
	}

	n, err := svc.LikeCount(ctx, "p1")
	if err != nil {
		t.Fatalf("LikeCount: %v", err)
	}
	if n != readers/2 {
		t.Errorf("like count = %d, want %d", n, readers/2)
	}
	liked, _ := svc.IsLiked(ctx, "r0", "p1")
	unliked, _ := svc.IsLiked(ctx, "r1", "p1")
	if !liked || unliked {
		t.Errorf("IsLiked r0=%v r1=%v", liked, unliked)
	}
}

func TestEngagementRequiresPublishedPost(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "author")
	testutil.Post(t, db, testutil.PostSpec{ID: "draft", AuthorID: "author", Draft: true, Views: 2})
	svc := NewService(db)
	ctx := context.Background()

	for _, id := range []string{"draft", "ghost"} {
		if _, err := svc.ToggleLike(ctx, "author", id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("toggle %s err = %v, want ErrNotFound", id, err)
		}
		if _, err := svc.LikeCount(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("like count %s err = %v, want ErrNotFound", id, err)
		}
		if _, err := svc.ViewCount(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("view count %s err = %v, want ErrNotFound", id, err)
		}
		if err := svc.IncrementView(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("increment %s err = %v, want ErrNotFound", id, err)
		}
	}
	if n, _ := db.PostViewCount(ctx, "draft"); n != 2 {
		t.Errorf("draft views = %d, want 2", n)
	}
}

func TestIncrementViewCountsEveryCall(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "author")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "author", Views: 3})
	svc := NewService(db)
	ctx := context.Background()

	prev := int64(3)
	for i := 0; i < 4; i++ {
		if err := svc.IncrementView(ctx, "p1"); err != nil {
			t.Fatal(err)
		}
		n, err := svc.ViewCount(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if n != prev+1 {
			t.Errorf("views = %d, want %d", n, prev+1)
		}
		prev = n
	}

	const concurrent = 20
	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.IncrementView(ctx, "p1")
		}()
	}
	wg.Wait()
	n, _ := svc.ViewCount(ctx, "p1")
	if n != prev+concurrent {
		t.Errorf("views after concurrent increments = %d, want %d", n, prev+concurrent)
	}

	if err := svc.IncrementView(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ViewCount(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
