package comments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/store"
	"github.com/starford/inkwell/internal/testutil"
)

func setup(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	testutil.Account(t, db, "a")
	testutil.Account(t, db, "b")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "a"})
	testutil.Post(t, db, testutil.PostSpec{ID: "p2", AuthorID: "a"})
	return NewService(db, WithClock(testutil.Clock())), db
}

func mustCreate(t *testing.T, svc *Service, in CreateInput) string {
	t.Helper()
	c, err := svc.CreateComment(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateComment(%+v): %v", in, err)
	}
	return c.ID
}

func TestCreateCommentAttachesAuthor(t *testing.T) {
	svc, _ := setup(t)
	c, err := svc.CreateComment(context.Background(), CreateInput{Content: "  hello  ", PostID: "p1", AuthorID: "b"})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.Content != "hello" || c.Author.ID != "b" || c.Author.DisplayName != "User b" || c.ParentID != "" {
		t.Errorf("comment = %+v", c)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		content string
		ok      bool
	}{
		{"empty", "", false},
		{"whitespace", "   \n", false},
		{"one rune", "x", true},
		{"max length", strings.Repeat("é", MaxContentLength), true},
		{"too long", strings.Repeat("a", MaxContentLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, CreateInput{Content: tt.content, PostID: "p1", AuthorID: "a"})
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateCommentReferences(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	testutil.Post(t, db, testutil.PostSpec{ID: "draft", AuthorID: "a", Draft: true})
	onP2 := mustCreate(t, svc, CreateInput{Content: "on p2", PostID: "p2", AuthorID: "a"})

	if _, err := svc.CreateComment(ctx, CreateInput{Content: "x", PostID: "ghost", AuthorID: "a"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing post err = %v", err)
	}
	if _, err := svc.CreateComment(ctx, CreateInput{Content: "x", PostID: "draft", AuthorID: "a"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("draft post err = %v", err)
	}
	if _, err := svc.CreateComment(ctx, CreateInput{Content: "x", PostID: "p1", AuthorID: "a", ParentID: "ghost"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing parent err = %v", err)
	}
	_, err := svc.CreateComment(ctx, CreateInput{Content: "x", PostID: "p1", AuthorID: "a", ParentID: onP2})
	if !errors.Is(err, apperr.ErrParentMismatch) || !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("cross-post reply err = %v, want ErrParentMismatch", err)
	}
	if _, err := svc.CreateComment(ctx, CreateInput{Content: "x", PostID: "p1", AuthorID: "ghost"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown author err = %v", err)
	}
}

func TestListThreadShape(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	t1 := mustCreate(t, svc, CreateInput{Content: "T1", PostID: "p1", AuthorID: "a"})
	t2 := mustCreate(t, svc, CreateInput{Content: "T2", PostID: "p1", AuthorID: "b"})
	r1 := mustCreate(t, svc, CreateInput{Content: "R1", PostID: "p1", AuthorID: "b", ParentID: t1})
	r2 := mustCreate(t, svc, CreateInput{Content: "R2", PostID: "p1", AuthorID: "a", ParentID: t1})
	mustCreate(t, svc, CreateInput{Content: "nested", PostID: "p1", AuthorID: "a", ParentID: r1})

	thread, err := svc.ListThread(ctx, "p1", 1, 20)
	if err != nil {
		t.Fatalf("ListThread: %v", err)
	}
	if len(thread.TopLevel) != 2 || thread.TopLevel[0].ID != t2 || thread.TopLevel[1].ID != t1 {
		t.Fatalf("top level = %+v, want [T2 T1]", thread.TopLevel)
	}
	replies := thread.TopLevel[1].Replies
	if len(replies) != 2 || replies[0].ID != r1 || replies[1].ID != r2 {
		t.Errorf("T1 replies = %+v, want [R1 R2]", replies)
	}
	if len(thread.TopLevel[0].Replies) != 0 || thread.TopLevel[0].Replies == nil {
		t.Errorf("T2 replies should be an empty list, got %#v", thread.TopLevel[0].Replies)
	}
	if thread.TopLevel[1].Author.DisplayName != "User a" {
		t.Errorf("author summary missing: %+v", thread.TopLevel[1].Author)
	}
	if thread.Pagination.TotalItems != 2 || thread.Pagination.TotalPages != 1 {
		t.Errorf("pagination = %+v", thread.Pagination)
	}
}

func TestListThreadPaginatesTopLevelOnly(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	var first string
	for i := 0; i < 5; i++ {
		id := mustCreate(t, svc, CreateInput{Content: "top", PostID: "p1", AuthorID: "a"})
		if i == 0 {
			first = id
		}
	}
	for i := 0; i < 4; i++ {
		mustCreate(t, svc, CreateInput{Content: "reply", PostID: "p1", AuthorID: "b", ParentID: first})
	}

	page, err := svc.ListThread(ctx, "p1", 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.TopLevel) != 1 || page.TopLevel[0].ID != first {
		t.Fatalf("last page = %+v", page.TopLevel)
	}
	if len(page.TopLevel[0].Replies) != 4 {
		t.Errorf("replies are unpaginated, got %d", len(page.TopLevel[0].Replies))
	}
	if page.Pagination.HasNext || !page.Pagination.HasPrev || page.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	if _, err := svc.ListThread(ctx, "ghost", 1, 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOwnershipGate(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	id := mustCreate(t, svc, CreateInput{Content: "original", PostID: "p1", AuthorID: "a"})

	_, foreignErr := svc.UpdateComment(ctx, id, "b", "hijacked")
	_, missingErr := svc.UpdateComment(ctx, "no-such-id", "b", "hijacked")
	if !errors.Is(foreignErr, apperr.ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", foreignErr)
	}
	if foreignErr.Error() != missingErr.Error() {
		t.Errorf("error shapes differ: %q vs %q", foreignErr, missingErr)
	}
	c, err := db.GetComment(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if c.Content != "original" {
		t.Errorf("content mutated to %q", c.Content)
	}

	foreignDel := svc.DeleteComment(ctx, id, "b")
	missingDel := svc.DeleteComment(ctx, "no-such-id", "b")
	if !errors.Is(foreignDel, apperr.ErrNotFound) || foreignDel.Error() != missingDel.Error() {
		t.Errorf("delete errors: %v vs %v", foreignDel, missingDel)
	}
}

func TestUpdateAndDeleteByOwner(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	top := mustCreate(t, svc, CreateInput{Content: "top", PostID: "p1", AuthorID: "a"})
	mustCreate(t, svc, CreateInput{Content: "reply", PostID: "p1", AuthorID: "b", ParentID: top})

	if _, err := svc.UpdateComment(ctx, top, "a", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty update err = %v, want ErrValidation", err)
	}
	v, err := svc.UpdateComment(ctx, top, "a", "edited")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if v.Content != "edited" || v.UpdatedAt == nil {
		t.Errorf("updated = %+v", v)
	}

	if err := svc.DeleteComment(ctx, top, "a"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	thread, err := svc.ListThread(ctx, "p1", 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(thread.TopLevel) != 0 {
		t.Errorf("orphaned replies must not surface as top-level: %+v", thread.TopLevel)
	}
	if err := svc.DeleteComment(ctx, top, "a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
