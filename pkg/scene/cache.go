package scene

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// CacheProvider wraps another provider with a SQLite-backed cache, so
// repeated builds of a hosted story do not refetch every scene. Rows are
// tagged with the session that fetched them.
type CacheProvider struct {
	next    Provider
	db      *sql.DB
	session string
	maxAge  time.Duration
}

// NewCacheProvider opens (or creates) the cache database at path.
func NewCacheProvider(next Provider, path string, maxAge time.Duration) (*CacheProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scene cache: %w", err)
	}
	p := &CacheProvider{
		next:    next,
		db:      db,
		session: uuid.NewString(),
		maxAge:  maxAge,
	}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate scene cache: %w", err)
	}
	return p, nil
}

func (p *CacheProvider) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenes (
		name       TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		session    TEXT NOT NULL,
		fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := p.db.Exec(schema)
	return err
}

// Close releases the cache database.
func (p *CacheProvider) Close() error {
	return p.db.Close()
}

// ListScenes delegates to the wrapped provider.
func (p *CacheProvider) ListScenes() ([]string, error) {
	return p.next.ListScenes()
}

// LoadScene returns the cached content when fresh, otherwise fetches and
// stores it.
func (p *CacheProvider) LoadScene(name string) (string, error) {
	key := Normalize(name)

	var content string
	var fetchedAt time.Time
	err := p.db.QueryRow(
		`SELECT content, fetched_at FROM scenes WHERE name = ?`, key,
	).Scan(&content, &fetchedAt)
	switch {
	case err == nil:
		if p.maxAge <= 0 || time.Since(fetchedAt) < p.maxAge {
			return content, nil
		}
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("scene cache lookup %q: %w", name, err)
	}

	content, err = p.next.LoadScene(name)
	if err != nil {
		return "", err
	}
	if _, err := p.db.Exec(
		`INSERT INTO scenes (name, content, session, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   content = excluded.content,
		   session = excluded.session,
		   fetched_at = excluded.fetched_at`,
		key, content, p.session, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("scene cache store %q: %w", name, err)
	}
	return content, nil
}

// HasScene consults the cache first, then the wrapped provider.
func (p *CacheProvider) HasScene(name string) bool {
	var one int
	err := p.db.QueryRow(`SELECT 1 FROM scenes WHERE name = ?`, Normalize(name)).Scan(&one)
	if err == nil {
		return true
	}
	return p.next.HasScene(name)
}
