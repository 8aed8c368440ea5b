package post

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

var md5Regex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Post is a corpus document (immutable value object).
// Its md5 is the stable identifier and doubles as the MinHash sort key.
type Post struct {
	md5    string
	tags   []string
	rating string
}

// New validates and creates a Post. Tags are lowercased, deduplicated and sorted.
func New(md5 string, tags []string, rating string) (Post, error) {
	md5 = strings.ToLower(md5)
	if !md5Regex.MatchString(md5) {
		return Post{}, fmt.Errorf("post md5 must be 32 hex characters, got %q", md5)
	}
	switch rating {
	case "":
		rating = tagsearch.RatingQuestionable
	case tagsearch.RatingSafe, tagsearch.RatingQuestionable, tagsearch.RatingExplicit:
	default:
		return Post{}, fmt.Errorf("unknown rating %q", rating)
	}

	return Post{md5: md5, tags: normalizeTags(tags), rating: rating}, nil
}

// Reconstruct creates a Post without validation (storage hydration).
func Reconstruct(md5 string, tags []string, rating string) Post {
	return Post{md5: md5, tags: tags, rating: rating}
}

// ID returns the post md5.
func (p *Post) ID() string { return p.md5 }

// Tags returns the post's tag names.
func (p *Post) Tags() []string { return p.tags }

// Rating returns the post rating (s, q or e).
func (p *Post) Rating() string { return p.rating }

// TagString returns the space-separated tag list.
func (p *Post) TagString() string { return strings.Join(p.tags, " ") }

// ParseTagString splits a space-separated tag string.
func ParseTagString(s string) []string {
	return strings.Fields(s)
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
