// Package store provides the on-disk transcription cache
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	_ "modernc.org/sqlite"
)

// Key identifies a cached transcription. The same audio transcribed with a
// different model or language is a different entry.
type Key struct {
	AudioHash string
	Model     string
	Language  string
}

// TranscriptCache is a SQLite-backed cache of whisper transcriptions
type TranscriptCache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	audio_hash TEXT NOT NULL,
	model      TEXT NOT NULL,
	language   TEXT NOT NULL,
	segments   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (audio_hash, model, language)
);
`

// Open opens (or creates) the cache database at the given path
func Open(path string) (*TranscriptCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			utils.LogWarning("Failed to close cache database: %v", cerr)
		}
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &TranscriptCache{db: db}, nil
}

// Get looks up cached segments. A corrupt row is treated as a miss.
func (c *TranscriptCache) Get(ctx context.Context, key Key) ([]utils.Segment, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT segments FROM transcriptions WHERE audio_hash = ? AND model = ? AND language = ?`,
		key.AudioHash, key.Model, key.Language,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var segments []utils.Segment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		utils.LogWarning("Corrupt cache entry for %s, falling back to transcription: %v", key.AudioHash, err)
		return nil, false, nil
	}
	if len(segments) == 0 {
		return nil, false, nil
	}

	return segments, true, nil
}

// Put stores segments for a key, replacing any previous entry
func (c *TranscriptCache) Put(ctx context.Context, key Key, segments []utils.Segment) error {
	raw, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to marshal segments: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transcriptions (audio_hash, model, language, segments, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key.AudioHash, key.Model, key.Language, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}

	return nil
}

// Close closes the underlying database
func (c *TranscriptCache) Close() error {
	return c.db.Close()
}
