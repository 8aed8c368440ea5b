package related

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Strategy is how a similarity result was computed.
type Strategy int

const (
	// StrategyExact materializes every matching post and computes exact Jaccard indexes.
	StrategyExact Strategy = iota
	// StrategyMinHash compares cached fixed-size samples.
	StrategyMinHash
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyMinHash:
		return "minhash"
	default:
		return "unknown"
	}
}

// SelectStrategy picks the exact path when every match fits within one sample.
func SelectStrategy(count, sampleSize int) Strategy {
	if count <= sampleSize {
		return StrategyExact
	}
	return StrategyMinHash
}

// Similarity is a candidate tag and its similarity score in [0, 1].
type Similarity struct {
	Tag   string
	Score float64
}

// TagCount is a tag and its occurrence count within a post set.
type TagCount struct {
	Name  string
	Count int
}

// Result is a ranked similarity list for one search.
type Result struct {
	Search   tagsearch.Search
	Strategy Strategy
	Tags     []Similarity
}

// SortSimilarities orders by descending score, then ascending tag name.
func SortSimilarities(s []Similarity) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Tag < s[j].Tag
	})
}

// SortTagCounts orders by descending count, then ascending tag name.
func SortTagCounts(c []TagCount) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].Name < c[j].Name
	})
}

// FormatTagCounts renders counts as "tag count tag count ...".
func FormatTagCounts(c []TagCount) string {
	var b strings.Builder
	for i, tc := range c {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tc.Name)
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(tc.Count))
	}
	return b.String()
}
