// Package jsonl reads post and tag dumps, one JSON object per line.
package jsonl

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/reltag/internal/domain/post"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
)

// MaxLineCapacity is the maximum buffer size for one line (1MB).
const MaxLineCapacity = 1024 * 1024

// PostRecord is one line of a post dump.
type PostRecord struct {
	MD5       string `json:"md5"`
	TagString string `json:"tag_string"`
	Rating    string `json:"rating"`
}

// TagRecord is one line of a tag dump.
type TagRecord struct {
	Name     string `json:"name"`
	Category int    `json:"category"`
}

// ReadPosts decodes posts from r and hands them to fn in batches of at most
// batchSize. It returns the number of posts read.
func ReadPosts(r io.Reader, batchSize int, fn func([]post.Post) error) (int, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	batch := make([]post.Post, 0, batchSize)
	total := 0
	err := eachLine(r, func(lineNum int, line []byte) error {
		var rec PostRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		p, err := post.New(rec.MD5, post.ParseTagString(rec.TagString), rec.Rating)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		batch = append(batch, p)
		total++
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]post.Post, 0, batchSize)
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadTags decodes every tag record from r.
func ReadTags(r io.Reader) ([]tag.Tag, error) {
	var out []tag.Tag
	err := eachLine(r, func(lineNum int, line []byte) error {
		var rec TagRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if rec.Name == "" {
			return fmt.Errorf("line %d: tag name is required", lineNum)
		}
		out = append(out, tag.Tag{Name: rec.Name, Category: tag.Category(rec.Category)})
		return nil
	})
	return out, err
}

func eachLine(r io.Reader, fn func(lineNum int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNum, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
