package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/inkwell/internal/models"
)

// InsertFollow creates a follow edge. It returns ErrDuplicate when the edge
// already exists (including when a concurrent insert won the race) and
// ErrNotFound when either account is missing.
func (db *DB) InsertFollow(ctx context.Context, followerID, followingID string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)`,
		followerID, followingID, utc(at))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDuplicate
		case isForeignKeyViolation(err):
			return ErrNotFound
		}
		return fmt.Errorf("store: insert follow: %w", err)
	}
	return nil
}

// DeleteFollow removes a follow edge and reports whether one existed.
func (db *DB) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("store: delete follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete follow: %w", err)
	}
	return n > 0, nil
}

// FollowExists reports whether followerID follows followingID.
func (db *DB) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: follow exists: %w", err)
	}
	return n > 0, nil
}

// FolloweeIDs returns the ids of every account followerID follows.
func (db *DB) FolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ?`, followerID)
	if err != nil {
		return nil, fmt.Errorf("store: followee ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan followee id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: followee ids: %w", err)
	}
	return out, nil
}

// ListFollowers returns the accounts following accountID, newest edge first.
func (db *DB) ListFollowers(ctx context.Context, accountID string, offset, limit int) ([]models.FollowEntry, int64, error) {
	return db.listEdges(ctx, "following_id", "follower_id", accountID, offset, limit)
}

// ListFollowing returns the accounts accountID follows, newest edge first.
func (db *DB) ListFollowing(ctx context.Context, accountID string, offset, limit int) ([]models.FollowEntry, int64, error) {
	return db.listEdges(ctx, "follower_id", "following_id", accountID, offset, limit)
}

// listEdges pages over follows where matchCol = accountID, returning the
// account on the other side (otherCol).
func (db *DB) listEdges(ctx context.Context, matchCol, otherCol, accountID string, offset, limit int) ([]models.FollowEntry, int64, error) {
	var total int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE `+matchCol+` = ?`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count follows: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT a.id, a.display_name, a.avatar, f.created_at
		FROM follows f
		JOIN accounts a ON a.id = f.`+otherCol+`
		WHERE f.`+matchCol+` = ?
		ORDER BY f.created_at DESC, f.rowid DESC
		LIMIT ? OFFSET ?
	`, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list follows: %w", err)
	}
	defer rows.Close()

	var out []models.FollowEntry
	for rows.Next() {
		var e models.FollowEntry
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Avatar, &e.FollowedAt); err != nil {
			return nil, 0, fmt.Errorf("store: scan follow: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: list follows: %w", err)
	}
	return out, total, nil
}
