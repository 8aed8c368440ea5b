// Package sqlite implements the post corpus on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // driver registration

	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/post"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// DefaultStatementTimeout bounds every corpus statement.
const DefaultStatementTimeout = 5 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
  md5        TEXT PRIMARY KEY,
  rating     TEXT NOT NULL DEFAULT 'q',
  tag_string TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
  tag TEXT NOT NULL,
  md5 TEXT NOT NULL,
  PRIMARY KEY (tag, md5)
) WITHOUT ROWID`,
	`CREATE INDEX IF NOT EXISTS idx_post_tags_md5 ON post_tags(md5)`,
	`CREATE TABLE IF NOT EXISTS tags (
  name       TEXT PRIMARY KEY,
  category   INTEGER NOT NULL DEFAULT 0,
  post_count INTEGER NOT NULL DEFAULT 0
)`,
}

// Corpus is a SQLite-backed corpus.
type Corpus struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Corpus, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Corpus{db: db, timeout: DefaultStatementTimeout}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// WithStatementTimeout overrides the per-statement timeout. Non-positive values are ignored.
func (c *Corpus) WithStatementTimeout(d time.Duration) *Corpus {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// Close closes the database.
func (c *Corpus) Close() error {
	return c.db.Close()
}

// Ping checks that the database answers a trivial query.
func (c *Corpus) Ping(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (c *Corpus) migrate(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	for _, ddl := range schema {
		if _, err := c.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Count returns the number of posts matching search.
func (c *Corpus) Count(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) (int, error) {
	q, err := tagsearch.Parse(search)
	if err != nil {
		return 0, err
	}
	where, args := buildWhere(&q, scope)

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p"+where, args...).Scan(&n); err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// Match returns every post matching search in md5 order.
func (c *Corpus) Match(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) ([]post.Post, error) {
	q, err := tagsearch.Parse(search)
	if err != nil {
		return nil, err
	}
	where, args := buildWhere(&q, scope)

	ctx, cancel := c.bound(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		"SELECT p.md5, p.tag_string, p.rating FROM posts p"+where+" ORDER BY p.md5", args...)
	if err != nil {
		return nil, unavailable("match", err)
	}
	defer rows.Close()

	var out []post.Post
	for rows.Next() {
		var md5, tagString, rating string
		if err := rows.Scan(&md5, &tagString, &rating); err != nil {
			return nil, unavailable("match", err)
		}
		out = append(out, post.Reconstruct(md5, post.ParseTagString(tagString), rating))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("match", err)
	}
	return out, nil
}

// Sample returns the size smallest md5s among posts matching search.
func (c *Corpus) Sample(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, size int,
) ([]string, error) {
	q, err := tagsearch.Parse(search)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, nil
	}
	where, args := buildWhere(&q, scope)
	args = append(args, size)

	ctx, cancel := c.bound(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		"SELECT p.md5 FROM posts p"+where+" ORDER BY p.md5 LIMIT ?", args...)
	if err != nil {
		return nil, unavailable("sample", err)
	}
	defer rows.Close()

	out := make([]string, 0, size)
	for rows.Next() {
		var md5 string
		if err := rows.Scan(&md5); err != nil {
			return nil, unavailable("sample", err)
		}
		out = append(out, md5)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("sample", err)
	}
	return out, nil
}

// TagPostCounts returns the stored post count per tag. Unknown tags count 0.
func (c *Corpus) TagPostCounts(ctx context.Context, names []string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	if len(names) == 0 {
		return out, nil
	}
	for _, n := range names {
		out[n] = 0
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		"SELECT name, post_count FROM tags WHERE name IN ("+placeholders(len(names))+")",
		stringArgs(names)...)
	if err != nil {
		return nil, unavailable("tag post counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, unavailable("tag post counts", err)
		}
		out[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("tag post counts", err)
	}
	return out, nil
}

// AggregateTagCounts counts tags across the posts with the given md5s,
// optionally restricted to categories, sorted by count then name.
func (c *Corpus) AggregateTagCounts(
	ctx context.Context, ids []string, categories []tag.Category, limit int,
) ([]domrel.TagCount, error) {
	if len(ids) == 0 || limit == 0 {
		return []domrel.TagCount{}, nil
	}

	var b strings.Builder
	args := stringArgs(ids)
	b.WriteString("SELECT pt.tag, COUNT(*) AS n FROM post_tags pt")
	b.WriteString(" LEFT JOIN tags t ON t.name = pt.tag")
	b.WriteString(" WHERE pt.md5 IN (" + placeholders(len(ids)) + ")")
	if len(categories) > 0 {
		b.WriteString(" AND COALESCE(t.category, 0) IN (" + placeholders(len(categories)) + ")")
		for _, cat := range categories {
			args = append(args, int(cat))
		}
	}
	b.WriteString(" GROUP BY pt.tag ORDER BY n DESC, pt.tag ASC")
	if limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, unavailable("aggregate tag counts", err)
	}
	defer rows.Close()

	out := []domrel.TagCount{}
	for rows.Next() {
		var tc domrel.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, unavailable("aggregate tag counts", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("aggregate tag counts", err)
	}
	return out, nil
}

func (c *Corpus) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: statement timeout: %w", domain.ErrCorpusUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrCorpusUnavailable, op, err)
}
