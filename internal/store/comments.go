package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/inkwell/internal/models"
)

const commentColumns = `c.id, c.content, c.post_id, c.author_id, c.parent_id, c.created_at, c.updated_at`

func scanComment(s scanner, extra ...any) (models.Comment, error) {
	var (
		c         models.Comment
		parentID  sql.NullString
		updatedAt sql.NullTime
	)
	dest := append([]any{&c.ID, &c.Content, &c.PostID, &c.AuthorID, &parentID, &c.CreatedAt, &updatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return models.Comment{}, err
	}
	c.ParentID = parentID.String
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return c, nil
}

// InsertComment stores a new comment. It returns ErrNotFound when the post or
// author does not exist.
func (db *DB) InsertComment(ctx context.Context, c models.Comment) error {
	var parentID sql.NullString
	if c.ParentID != "" {
		parentID = sql.NullString{String: c.ParentID, Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO comments (id, content, post_id, author_id, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Content, c.PostID, c.AuthorID, parentID, utc(c.CreatedAt))
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return ErrNotFound
		case isUniqueViolation(err):
			return ErrDuplicate
		}
		return fmt.Errorf("store: insert comment: %w", err)
	}
	return nil
}

// GetComment returns the comment with the given id.
func (db *DB) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments c WHERE c.id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get comment: %w", err)
	}
	return &c, nil
}

// GetCommentView returns the comment with its author summary.
func (db *DB) GetCommentView(ctx context.Context, id string) (*models.CommentView, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+commentColumns+`, COALESCE(a.display_name, ''), COALESCE(a.avatar, '')
		FROM comments c LEFT JOIN accounts a ON a.id = c.author_id
		WHERE c.id = ?`, id)
	var v models.CommentView
	c, err := scanComment(row, &v.Author.DisplayName, &v.Author.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get comment: %w", err)
	}
	v.Comment = c
	v.Author.ID = c.AuthorID
	return &v, nil
}

// UpdateOwnedComment replaces the content of comment id if it is owned by
// authorID, reporting whether a row matched.
func (db *DB) UpdateOwnedComment(ctx context.Context, id, authorID, content string, at time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND author_id = ?`,
		content, utc(at), id, authorID)
	if err != nil {
		return false, fmt.Errorf("store: update comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: update comment: %w", err)
	}
	return n > 0, nil
}

// DeleteOwnedComment removes comment id if it is owned by authorID,
// reporting whether a row matched. Replies are left in place.
func (db *DB) DeleteOwnedComment(ctx context.Context, id, authorID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return false, fmt.Errorf("store: delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete comment: %w", err)
	}
	return n > 0, nil
}

// ListTopLevelComments pages over postID's comments without a parent, newest
// first.
func (db *DB) ListTopLevelComments(ctx context.Context, postID string, offset, limit int) ([]models.CommentView, int64, error) {
	var total int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ? AND parent_id IS NULL`, postID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count comments: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+commentColumns+`, COALESCE(a.display_name, ''), COALESCE(a.avatar, '')
		FROM comments c LEFT JOIN accounts a ON a.id = c.author_id
		WHERE c.post_id = ? AND c.parent_id IS NULL
		ORDER BY c.created_at DESC, c.rowid DESC
		LIMIT ? OFFSET ?
	`, postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list comments: %w", err)
	}
	out, err := collectCommentViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListReplies returns the direct replies of every parent id, oldest first,
// keyed by parent id.
func (db *DB) ListReplies(ctx context.Context, parentIDs []string) (map[string][]models.CommentView, error) {
	out := make(map[string][]models.CommentView, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+commentColumns+`, COALESCE(a.display_name, ''), COALESCE(a.avatar, '')
		FROM comments c LEFT JOIN accounts a ON a.id = c.author_id
		WHERE c.parent_id IN (`+placeholders(len(parentIDs))+`)
		ORDER BY c.created_at ASC, c.rowid ASC
	`, stringArgs(parentIDs)...)
	if err != nil {
		return nil, fmt.Errorf("store: list replies: %w", err)
	}
	views, err := collectCommentViews(rows)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		out[v.ParentID] = append(out[v.ParentID], v)
	}
	return out, nil
}

// CountComments counts every stored comment of postID, replies included.
func (db *DB) CountComments(ctx context.Context, postID string) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count comments: %w", err)
	}
	return n, nil
}

func collectCommentViews(rows *sql.Rows) ([]models.CommentView, error) {
	defer rows.Close()
	var out []models.CommentView
	for rows.Next() {
		var v models.CommentView
		c, err := scanComment(rows, &v.Author.DisplayName, &v.Author.Avatar)
		if err != nil {
			return nil, fmt.Errorf("store: scan comment: %w", err)
		}
		v.Comment = c
		v.Author.ID = c.AuthorID
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list comments: %w", err)
	}
	return out, nil
}
