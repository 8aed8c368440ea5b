package sqlite

import (
	"strings"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// buildWhere renders q under scope as a WHERE clause over posts aliased p.
// It returns an empty string when nothing constrains the match.
func buildWhere(q *tagsearch.Query, scope tagsearch.Scope) (string, []any) {
	var conds []string
	var args []any

	if scope.SafeMode {
		conds = append(conds, "p.rating = ?")
		args = append(args, tagsearch.RatingSafe)
	}
	if r := q.Ratings(); len(r) > 0 {
		conds = append(conds, "p.rating IN ("+placeholders(len(r))+")")
		args = append(args, stringArgs(r)...)
	}
	for _, t := range q.Required() {
		conds = append(conds, "EXISTS (SELECT 1 FROM post_tags pt WHERE pt.md5 = p.md5 AND pt.tag = ?)")
		args = append(args, t)
	}
	for _, t := range q.Excluded() {
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM post_tags pt WHERE pt.md5 = p.md5 AND pt.tag = ?)")
		args = append(args, t)
	}
	if anyOf := q.Any(); len(anyOf) > 0 {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.md5 = p.md5 AND pt.tag IN ("+placeholders(len(anyOf))+"))")
		args = append(args, stringArgs(anyOf)...)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
