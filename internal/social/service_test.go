package social

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/testutil"
)

func TestFollowLifecycle(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Account(t, db, "b")
	svc := NewService(db, WithClock(testutil.Clock()))
	ctx := context.Background()

	if _, err := svc.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if _, err := svc.Follow(ctx, "a", "b"); !errors.Is(err, apperr.ErrAlreadyFollowing) {
		t.Errorf("second follow err = %v, want ErrAlreadyFollowing", err)
	}
	ok, err := svc.IsFollowing(ctx, "a", "b")
	if err != nil || !ok {
		t.Errorf("IsFollowing = %v, %v", ok, err)
	}
	ok, _ = svc.IsFollowing(ctx, "b", "a")
	if ok {
		t.Error("follow edges are directed")
	}

	if err := svc.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := svc.Unfollow(ctx, "a", "b"); !errors.Is(err, apperr.ErrNotFollowing) {
		t.Errorf("second unfollow err = %v, want ErrNotFollowing", err)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	svc := NewService(db)

	_, err := svc.Follow(context.Background(), "a", "a")
	if !errors.Is(err, apperr.ErrSelfFollow) || !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrSelfFollow", err)
	}
	// Rejected even when the account is unknown.
	if _, err := svc.Follow(context.Background(), "ghost", "ghost"); !errors.Is(err, apperr.ErrSelfFollow) {
		t.Errorf("err = %v, want ErrSelfFollow", err)
	}
}

func TestFollowUnknownOrInactiveAccount(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	if err := db.UpsertAccount(context.Background(), models.Account{ID: "gone", Active: false}); err != nil {
		t.Fatal(err)
	}
	svc := NewService(db)

	for _, target := range []string{"ghost", "gone"} {
		if _, err := svc.Follow(context.Background(), "a", target); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("follow %s err = %v, want ErrNotFound", target, err)
		}
	}
}

func TestConcurrentDuplicateFollow(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Account(t, db, "b")
	svc := NewService(db)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Follow(context.Background(), "a", "b")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.ErrAlreadyFollowing):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != callers-1 || len(others) != 0 {
		t.Errorf("successes=%d conflicts=%d others=%v", successes, conflicts, others)
	}
}

func TestListFollowersPagination(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.Account(t, db, "star")
	svc := NewService(db, WithClock(testutil.Clock()))
	ctx := context.Background()

	fans := []string{"f1", "f2", "f3", "f4", "f5"}
	for _, f := range fans {
		testutil.Account(t, db, f)
		if _, err := svc.Follow(ctx, f, "star"); err != nil {
			t.Fatal(err)
		}
	}

	page, err := svc.ListFollowers(ctx, "star", 1, 2)
	if err != nil {
		t.Fatalf("ListFollowers: %v", err)
	}
	if len(page.Accounts) != 2 || page.Accounts[0].ID != "f5" || page.Accounts[1].ID != "f4" {
		t.Errorf("page 1 = %+v", page.Accounts)
	}
	want := models.Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 5, HasNext: true, HasPrev: false}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}

	last, err := svc.ListFollowers(ctx, "star", 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Accounts) != 1 || last.Pagination.HasNext || !last.Pagination.HasPrev {
		t.Errorf("last page = %+v", last)
	}

	following, err := svc.ListFollowing(ctx, "f1", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(following.Accounts) != 1 || following.Accounts[0].ID != "star" {
		t.Errorf("following = %+v", following.Accounts)
	}

	if _, err := svc.ListFollowers(ctx, "ghost", 1, 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
