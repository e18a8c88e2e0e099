// Package store provides the SQLite-backed persistence for posts, accounts,
// categories, follow and like edges, and comments.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	avatar       TEXT NOT NULL DEFAULT '',
	active       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS categories (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL DEFAULT '',
	slug  TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	slug         TEXT NOT NULL UNIQUE,
	content      TEXT NOT NULL DEFAULT '',
	excerpt      TEXT NOT NULL DEFAULT '',
	published    INTEGER NOT NULL DEFAULT 0,
	published_at DATETIME,
	author_id    TEXT NOT NULL REFERENCES accounts(id),
	category_id  TEXT REFERENCES categories(id) ON DELETE SET NULL,
	view_count   INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
	created_at   DATETIME NOT NULL,
	source_path  TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_posts_published_created ON posts(published, created_at);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_id);
CREATE INDEX IF NOT EXISTS idx_posts_source ON posts(source_path);

CREATE TABLE IF NOT EXISTS follows (
	follower_id  TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	following_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	created_at   DATETIME NOT NULL,
	PRIMARY KEY (follower_id, following_id),
	CHECK (follower_id <> following_id)
);

CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id, created_at);

CREATE TABLE IF NOT EXISTS likes (
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (post_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_likes_user ON likes(user_id);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author_id  TEXT NOT NULL REFERENCES accounts(id),
	parent_id  TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_comments_post_parent ON comments(post_id, parent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_id, created_at);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

const dsnParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

// withParams appends the connection parameters, keeping any query string
// already present in dsn.
func withParams(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + dsnParams
	}
	return dsn + "?" + dsnParams
}

// Open opens (or creates) the SQLite database and applies the schema.
//
// Transactions are started with BEGIN IMMEDIATE so that check-and-mutate
// operations take the write lock up front and wait on the busy timeout
// instead of failing on a stale read snapshot.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", withParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
