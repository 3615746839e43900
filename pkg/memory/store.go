// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory persists conversation turns in SQLite, keyed by a stable
// user identifier. The team loop reads the recent turns back as context.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teradata-labs/ubik/internal/sqlitedriver"
)

// Turn is one stored conversation turn.
type Turn struct {
	ID        string
	UserID    string
	Role      string // user | assistant
	Content   string
	CreatedAt time.Time
}

// Store provides append/recent access to conversation memory.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the memory database at path. A non-empty
// encryption key enables SQLCipher when the build supports it; on pure-Go
// builds the key is ignored and the database is plaintext.
func Open(path, encryptionKey string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	if encryptionKey != "" && sqlitedriver.EncryptionSupported {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA key = '%s'", encryptionKey)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply encryption key: %w", err)
		}
	}

	// WAL for better concurrency between the warmup goroutines and the query.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_user_time ON turns(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one turn for a user.
func (s *Store) Append(ctx context.Context, userID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, role, content, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Recent returns at most n of the user's most recent turns, oldest first.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM turns WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var newest []Turn
	for rows.Next() {
		var t Turn
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.CreatedAt = time.Unix(0, createdAt)
		newest = append(newest, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse from newest-first to oldest-first.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
