package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/reltag/internal/domain/post"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
)

// Import upserts posts in one transaction and refreshes the post count of
// every tag they touch. A post with an existing md5 is replaced.
func (c *Corpus) Import(ctx context.Context, posts []post.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	touched := make(map[string]struct{})
	for i := range posts {
		p := &posts[i]

		old, err := existingTags(ctx, tx, p.ID())
		if err != nil {
			return err
		}
		for _, t := range old {
			touched[t] = struct{}{}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO posts (md5, rating, tag_string) VALUES (?, ?, ?)
			 ON CONFLICT(md5) DO UPDATE SET rating = excluded.rating, tag_string = excluded.tag_string`,
			p.ID(), p.Rating(), p.TagString()); err != nil {
			return fmt.Errorf("upsert post %s: %w", p.ID(), err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags WHERE md5 = ?", p.ID()); err != nil {
			return fmt.Errorf("clear tags of %s: %w", p.ID(), err)
		}
		for _, t := range p.Tags() {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO post_tags (tag, md5) VALUES (?, ?)", t, p.ID()); err != nil {
				return fmt.Errorf("tag %s on %s: %w", t, p.ID(), err)
			}
			touched[t] = struct{}{}
		}
	}

	for t := range touched {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name, post_count) VALUES (?, (SELECT COUNT(*) FROM post_tags WHERE tag = ?))
			 ON CONFLICT(name) DO UPDATE SET post_count = excluded.post_count`, t, t); err != nil {
			return fmt.Errorf("refresh count of %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// ImportTags upserts tag categories. Post counts are left to Import.
func (c *Corpus) ImportTags(ctx context.Context, tags []tag.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name, category) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET category = excluded.category`,
			t.Name, int(t.Category)); err != nil {
			return fmt.Errorf("upsert tag %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag import: %w", err)
	}
	return nil
}

func existingTags(ctx context.Context, tx *sql.Tx, md5 string) ([]string, error) {
	var tagString string
	err := tx.QueryRowContext(ctx, "SELECT tag_string FROM posts WHERE md5 = ?", md5).Scan(&tagString)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", md5, err)
	}
	return post.ParseTagString(tagString), nil
}
