package tag

import (
	"fmt"
	"strings"
)

// Category classifies a tag.
type Category int

// Tag categories.
const (
	General   Category = 0
	Artist    Category = 1
	Copyright Category = 3
	Character Category = 4
	Meta      Category = 5
)

var categoryNames = map[Category]string{
	General:   "general",
	Artist:    "artist",
	Copyright: "copyright",
	Character: "character",
	Meta:      "meta",
}

// String returns the category name.
func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory accepts a category name ("artist") or its numeric value ("1").
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == s || fmt.Sprint(int(c)) == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown tag category %q", s)
}

// Tag is a tag name with its corpus-wide post count.
type Tag struct {
	Name      string
	Category  Category
	PostCount int
}
