package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4" // Ensure sqlcipher driver is registered.

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

const historyDBName = "history.db"

// HistoryStore implements domain.AssessmentStore plus the durable scorer
// whitelist, backed by a SQLCipher encrypted SQLite database. Assessment
// rows contain page titles, so the file is encrypted at rest.
type HistoryStore struct {
	db     *sql.DB
	dbPath string
}

// NewHistoryStore opens (or creates) the encrypted history database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewHistoryStore(dataDir string, key []byte) (*HistoryStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, historyDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &HistoryStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *HistoryStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_key TEXT NOT NULL,
		display_name TEXT NOT NULL,
		block_id TEXT NOT NULL,
		relevant INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		reason TEXT NOT NULL,
		counter_seconds REAL NOT NULL,
		assessed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS whitelist (
		title TEXT NOT NULL,
		intention TEXT NOT NULL,
		approved_at INTEGER NOT NULL,
		PRIMARY KEY (title, intention)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one assessment.
func (s *HistoryStore) Append(a domain.Assessment) error {
	relevant := 0
	if a.Relevant {
		relevant = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO assessments
			(target_key, display_name, block_id, relevant, confidence, reason, counter_seconds, assessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.TargetKey), a.DisplayName, a.BlockID, relevant,
		a.Confidence, a.Reason, a.CounterSeconds, a.AssessedAt.Unix(),
	)
	return err
}

// Recent returns the newest assessments, most recent first.
func (s *HistoryStore) Recent(limit int) ([]domain.Assessment, error) {
	rows, err := s.db.Query(`
		SELECT target_key, display_name, block_id, relevant, confidence, reason, counter_seconds, assessed_at
		FROM assessments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assessment
	for rows.Next() {
		var a domain.Assessment
		var key string
		var relevant int
		var assessedAt int64
		if err := rows.Scan(&key, &a.DisplayName, &a.BlockID, &relevant,
			&a.Confidence, &a.Reason, &a.CounterSeconds, &assessedAt); err != nil {
			return nil, err
		}
		a.TargetKey = domain.TargetKey(key)
		a.Relevant = relevant != 0
		a.AssessedAt = time.Unix(assessedAt, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApproveTitle durably whitelists a title for an intention.
func (s *HistoryStore) ApproveTitle(title, intention string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO whitelist (title, intention, approved_at)
		VALUES (?, ?, strftime('%s','now'))`, title, intention)
	return err
}

// IsTitleApproved checks the durable whitelist.
func (s *HistoryStore) IsTitleApproved(title, intention string) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(1) FROM whitelist WHERE title = ? AND intention = ?`,
		title, intention).Scan(&n)
	return n > 0, err
}

// Close releases the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

var _ domain.AssessmentStore = (*HistoryStore)(nil)
