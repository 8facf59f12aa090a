// Package cache keeps a local copy of subtitle tracks so they can be
// inspected, exported and re-uploaded without reaching the backend.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// cached SRT text for one video and language
type Entry struct {
	VideoID   int
	Lang      string
	SRT       string
	UpdatedAt time.Time
}

// SQLite-backed track cache. Safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path. ":memory:" gives a
// throwaway cache.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// one connection keeps :memory: databases shared and writes serialized
	db.SetMaxOpenConns(1)

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subtitle_tracks (
		video_id   INTEGER NOT NULL,
		lang       TEXT NOT NULL,
		srt        TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (video_id, lang)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Put upserts the SRT text for a video/language pair.
func (c *Cache) Put(videoID int, lang, srt string) error {
	_, err := c.db.Exec(
		`INSERT INTO subtitle_tracks (video_id, lang, srt, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (video_id, lang) DO UPDATE
		 SET srt = excluded.srt, updated_at = excluded.updated_at`,
		videoID, lang, srt, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to cache track %d/%s: %w", videoID, lang, err)
	}
	return nil
}

// Get returns the cached SRT text; found is false when nothing is stored.
func (c *Cache) Get(videoID int, lang string) (srt string, found bool, err error) {
	err = c.db.QueryRow(
		`SELECT srt FROM subtitle_tracks WHERE video_id = ? AND lang = ?`,
		videoID, lang,
	).Scan(&srt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached track %d/%s: %w", videoID, lang, err)
	}
	return srt, true, nil
}

// Delete removes a cached track. Missing entries are not an error.
func (c *Cache) Delete(videoID int, lang string) error {
	_, err := c.db.Exec(
		`DELETE FROM subtitle_tracks WHERE video_id = ? AND lang = ?`,
		videoID, lang,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cached track %d/%s: %w", videoID, lang, err)
	}
	return nil
}

// List returns every cached track of a video ordered by language. The
// result is empty, not nil, when nothing is cached.
func (c *Cache) List(videoID int) ([]Entry, error) {
	rows, err := c.db.Query(
		`SELECT lang, srt, updated_at FROM subtitle_tracks WHERE video_id = ? ORDER BY lang`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached tracks for %d: %w", videoID, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Lang, &e.SRT, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan cached track: %w", err)
		}
		e.VideoID = videoID
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
