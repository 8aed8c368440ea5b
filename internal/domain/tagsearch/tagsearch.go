// Package tagsearch holds the tag search expression and its parsed form.
package tagsearch

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/reltag/internal/domain"
)

// Search is an opaque tag search expression, e.g. "red_hair blue_eyes".
// Two searches are equal iff their strings are equal; no normalization is applied.
type Search string

// String returns the raw expression.
func (s Search) String() string { return string(s) }

// Join returns the conjunction of the given searches ("a b").
func Join(searches ...Search) Search {
	parts := make([]string, 0, len(searches))
	for _, s := range searches {
		if t := strings.TrimSpace(string(s)); t != "" {
			parts = append(parts, t)
		}
	}
	return Search(strings.Join(parts, " "))
}

// Scope carries the viewer context under which a search is evaluated.
type Scope struct {
	// SafeMode restricts matches to posts rated RatingSafe.
	SafeMode bool
}

// Post ratings.
const (
	RatingSafe         = "s"
	RatingQuestionable = "q"
	RatingExplicit     = "e"
)

const ratingPrefix = "rating:"

// Query is a parsed Search.
type Query struct {
	required []string
	excluded []string
	any      []string
	ratings  []string
}

// Parse parses a search expression.
//
//	tag        post must carry tag
//	-tag       post must not carry tag
//	~tag       post must carry at least one of the ~ terms
//	rating:x   post rating must be x (s, q or e); repeated terms are ORed
func Parse(s Search) (Query, error) {
	terms := strings.Fields(string(s))
	if len(terms) == 0 {
		return Query{}, fmt.Errorf("%w: empty search", domain.ErrInvalidSearch)
	}

	var q Query
	for _, term := range terms {
		term = strings.ToLower(term)

		if strings.HasPrefix(term, ratingPrefix) {
			r := strings.TrimPrefix(term, ratingPrefix)
			if r != "" {
				r = r[:1]
			}
			switch r {
			case RatingSafe, RatingQuestionable, RatingExplicit:
				q.ratings = appendUnique(q.ratings, r)
			default:
				return Query{}, fmt.Errorf("%w: unknown rating %q", domain.ErrInvalidSearch, term)
			}
			continue
		}

		switch term[0] {
		case '-':
			name := term[1:]
			if name == "" {
				return Query{}, fmt.Errorf("%w: dangling '-'", domain.ErrInvalidSearch)
			}
			q.excluded = appendUnique(q.excluded, name)
		case '~':
			name := term[1:]
			if name == "" {
				return Query{}, fmt.Errorf("%w: dangling '~'", domain.ErrInvalidSearch)
			}
			q.any = appendUnique(q.any, name)
		default:
			q.required = appendUnique(q.required, term)
		}
	}

	sort.Strings(q.required)
	sort.Strings(q.excluded)
	sort.Strings(q.any)
	sort.Strings(q.ratings)
	return q, nil
}

// IsTagName reports whether s names a single tag rather than a search operator:
// non-empty, no whitespace, no '-' or '~' prefix and no rating: term.
func IsTagName(s string) bool {
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return false
	}
	if s[0] == '-' || s[0] == '~' {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(s), ratingPrefix)
}

// Required returns the tags every match must carry.
func (q *Query) Required() []string { return q.required }

// Excluded returns the tags no match may carry.
func (q *Query) Excluded() []string { return q.excluded }

// Any returns the tags of which a match must carry at least one (empty = no constraint).
func (q *Query) Any() []string { return q.any }

// Ratings returns the allowed ratings (empty = any rating).
func (q *Query) Ratings() []string { return q.ratings }

// Matches reports whether a post with the given tags and rating satisfies the query under scope.
func (q *Query) Matches(tags []string, rating string, scope Scope) bool {
	if scope.SafeMode && rating != RatingSafe {
		return false
	}
	if len(q.ratings) > 0 && !contains(q.ratings, rating) {
		return false
	}

	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}

	for _, t := range q.required {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	for _, t := range q.excluded {
		if _, ok := set[t]; ok {
			return false
		}
	}
	if len(q.any) == 0 {
		return true
	}
	for _, t := range q.any {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
