package store

import (
	"context"
	"fmt"
	"time"
)

// ToggleLike flips the like edge between userID and postID inside a single
// transaction and returns the resulting state.
//
// The delete runs first so an existing edge is removed without a separate
// read. If the insert then hits the primary key, a concurrent toggle created
// the edge after our delete; the edge's current existence is reported.
func (db *DB) ToggleLike(ctx context.Context, userID, postID string, at time.Time) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("store: delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete like: %w", err)
	}
	if n > 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("store: commit unlike: %w", err)
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		postID, userID, utc(at))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			_ = tx.Rollback()
			return db.LikeExists(ctx, userID, postID)
		case isForeignKeyViolation(err):
			return false, ErrNotFound
		}
		return false, fmt.Errorf("store: insert like: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit like: %w", err)
	}
	return true, nil
}

// LikeExists reports whether userID currently likes postID.
func (db *DB) LikeExists(ctx context.Context, userID, postID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: like exists: %w", err)
	}
	return n > 0, nil
}

// CountLikes counts the like edges of postID.
func (db *DB) CountLikes(ctx context.Context, postID string) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count likes: %w", err)
	}
	return n, nil
}
