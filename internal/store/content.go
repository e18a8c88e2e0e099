package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/inkwell/internal/models"
)

// PostOrder selects the ordering of ListPublishedPosts.
type PostOrder string

// Post orderings.
const (
	// OrderNewest sorts by created_at descending.
	OrderNewest PostOrder = "newest"
	// OrderPopular sorts by like count, then view count, then created_at, all descending.
	OrderPopular PostOrder = "popular"
	// OrderMostViewed sorts by view count, then created_at, both descending.
	OrderMostViewed PostOrder = "most_viewed"
)

// PostFilter restricts ListPublishedPosts. Zero values mean "no restriction";
// a non-nil empty AuthorIDIn matches nothing.
type PostFilter struct {
	AuthorIDIn []string
	CategoryID string
	ExcludeIDs []string
}

// PostRow is a published post with counts computed in the same query.
type PostRow struct {
	models.Post
	LikeCount    int64
	CommentCount int64
}

// PostRecord is a post together with its import bookkeeping.
type PostRecord struct {
	models.Post
	SourcePath string
	Checksum   string
	// ImpliedCreatedAt and ImpliedPublishedAt mark fallback timestamps. On
	// update the stored values win over them.
	ImpliedCreatedAt   bool
	ImpliedPublishedAt bool
}

const postColumns = `p.id, p.title, p.slug, p.content, p.excerpt, p.published, p.published_at,
	p.author_id, p.category_id, p.view_count, p.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner, extra ...any) (models.Post, error) {
	var (
		p           models.Post
		publishedAt sql.NullTime
		categoryID  sql.NullString
	)
	dest := append([]any{
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Published, &publishedAt,
		&p.AuthorID, &categoryID, &p.ViewCount, &p.CreatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return models.Post{}, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	p.CategoryID = categoryID.String
	return p, nil
}

// UpsertAccount inserts or replaces an account reference.
func (db *DB) UpsertAccount(ctx context.Context, a models.Account) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO accounts (id, display_name, avatar, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar       = excluded.avatar,
			active       = excluded.active
	`, a.ID, a.DisplayName, a.Avatar, a.Active)
	if err != nil {
		return fmt.Errorf("store: upsert account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given id.
func (db *DB) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, display_name, avatar, active FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.DisplayName, &a.Avatar, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get account: %w", err)
	}
	return &a, nil
}

// GetAccountSummary returns the author view of an account.
func (db *DB) GetAccountSummary(ctx context.Context, id string) (*models.AccountSummary, error) {
	a, err := db.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.AccountSummary{ID: a.ID, DisplayName: a.DisplayName, Avatar: a.Avatar}, nil
}

// UpsertCategory inserts or replaces a category.
func (db *DB) UpsertCategory(ctx context.Context, c models.Category) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, color)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name  = excluded.name,
			slug  = excluded.slug,
			color = excluded.color
	`, c.ID, c.Name, c.Slug, c.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("store: upsert category: %w", err)
	}
	return nil
}

// GetCategory returns the category with the given id.
func (db *DB) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return db.getCategory(ctx, `id = ?`, id)
}

// GetCategoryBySlug returns the category with the given slug.
func (db *DB) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return db.getCategory(ctx, `slug = ?`, slug)
}

func (db *DB) getCategory(ctx context.Context, where string, arg string) (*models.Category, error) {
	var c models.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, color FROM categories WHERE `+where, arg,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get category: %w", err)
	}
	return &c, nil
}

// UpsertPost inserts or updates a post. The view counter of an existing post
// is never touched. Implied timestamps never replace stored ones; an
// unpublished post always loses its published_at.
func (db *DB) UpsertPost(ctx context.Context, r PostRecord) error {
	var categoryID sql.NullString
	if r.CategoryID != "" {
		categoryID = sql.NullString{String: r.CategoryID, Valid: true}
	}
	var publishedAt sql.NullTime
	if r.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: r.PublishedAt.UTC(), Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, content, excerpt, published, published_at,
			author_id, category_id, view_count, created_at, source_path, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title        = excluded.title,
			slug         = excluded.slug,
			content      = excluded.content,
			excerpt      = excluded.excerpt,
			published    = excluded.published,
			published_at = CASE
				WHEN excluded.published_at IS NULL THEN NULL
				WHEN ? THEN COALESCE(posts.published_at, posts.created_at)
				ELSE excluded.published_at END,
			author_id    = excluded.author_id,
			category_id  = excluded.category_id,
			created_at   = CASE WHEN ? THEN posts.created_at ELSE excluded.created_at END,
			source_path  = excluded.source_path,
			checksum     = excluded.checksum
	`, r.ID, r.Title, r.Slug, r.Content, r.Excerpt, r.Published, publishedAt,
		r.AuthorID, categoryID, r.ViewCount, utc(r.CreatedAt), r.SourcePath, r.Checksum,
		r.ImpliedPublishedAt, r.ImpliedCreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDuplicate
		case isForeignKeyViolation(err):
			return ErrNotFound
		}
		return fmt.Errorf("store: upsert post: %w", err)
	}
	return nil
}

// GetPost returns the post with the given id, published or not.
func (db *DB) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return db.getPost(ctx, `p.id = ?`, id)
}

// GetPostBySlug returns the post with the given slug, published or not.
func (db *DB) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return db.getPost(ctx, `p.slug = ?`, slug)
}

func (db *DB) getPost(ctx context.Context, where, arg string) (*models.Post, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE `+where, arg)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get post: %w", err)
	}
	return &p, nil
}

// SourceChecksums returns the checksum of every imported post keyed by
// source path.
func (db *DB) SourceChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source_path, checksum FROM posts WHERE source_path <> ''`)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, fmt.Errorf("store: scan source checksum: %w", err)
		}
		out[p] = cs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	return out, nil
}

// ListPublishedPosts returns one page of published posts matching f in the
// given order, plus the total number of matches.
func (db *DB) ListPublishedPosts(ctx context.Context, f PostFilter, order PostOrder, offset, limit int) ([]PostRow, int64, error) {
	if f.AuthorIDIn != nil && len(f.AuthorIDIn) == 0 {
		return nil, 0, nil
	}

	where := []string{`p.published = 1`}
	var args []any
	if len(f.AuthorIDIn) > 0 {
		where = append(where, `p.author_id IN (`+placeholders(len(f.AuthorIDIn))+`)`)
		args = append(args, stringArgs(f.AuthorIDIn)...)
	}
	if f.CategoryID != "" {
		where = append(where, `p.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if len(f.ExcludeIDs) > 0 {
		where = append(where, `p.id NOT IN (`+placeholders(len(f.ExcludeIDs))+`)`)
		args = append(args, stringArgs(f.ExcludeIDs)...)
	}
	whereSQL := strings.Join(where, " AND ")

	var orderSQL string
	switch order {
	case OrderPopular:
		orderSQL = `like_count DESC, p.view_count DESC, p.created_at DESC, p.rowid DESC`
	case OrderMostViewed:
		orderSQL = `p.view_count DESC, p.created_at DESC, p.rowid DESC`
	case OrderNewest, "":
		orderSQL = `p.created_at DESC, p.rowid DESC`
	default:
		return nil, 0, fmt.Errorf("store: unknown post order %q", order)
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count posts: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `
		SELECT ` + postColumns + `,
			(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
		FROM posts p
		WHERE ` + whereSQL + `
		ORDER BY ` + orderSQL + `
		LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		var r PostRow
		p, err := scanPost(rows, &r.LikeCount, &r.CommentCount)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan post: %w", err)
		}
		r.Post = p
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: list posts: %w", err)
	}
	return out, total, nil
}

// IncrementPostView atomically adds one to the post's view counter.
func (db *DB) IncrementPostView(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: increment view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: increment view: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostViewCount returns the post's current view counter.
func (db *DB) PostViewCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT view_count FROM posts WHERE id = ?`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: view count: %w", err)
	}
	return n, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// DeletePostBySource removes the post imported from path, reporting whether
// one existed.
func (db *DB) DeletePostBySource(ctx context.Context, path string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE source_path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("store: delete post by source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete post by source: %w", err)
	}
	return n > 0, nil
}
