package catalog

import "strings"

// Criteria is the open bag of optional listing filters. The zero value
// compiles to the default published-only predicate. Empty strings are
// treated the same as absent criteria.
type Criteria struct {
	Search      string
	Category    Category
	Year        int
	Genre       string
	Quality     Quality
	IsDualAudio bool

	// ModerationQueue scopes the predicate to pending_review instead of
	// published. Evaluated first; no other criterion overrides it.
	ModerationQueue bool
}

// Compile turns the criteria into a single conjunctive WHERE clause plus
// its arguments. Each present criterion contributes one independent
// condition.
func (c Criteria) Compile() (string, []any) {
	conds := make([]string, 0, 8)
	args := make([]any, 0, 8)

	// Moderation scope comes first and always applies.
	if c.ModerationQueue {
		conds = append(conds, "visibility = ?")
		args = append(args, string(VisibilityPendingReview))
	} else {
		conds = append(conds, "visibility = ?")
		args = append(args, string(VisibilityPublished))
	}

	if c.Category != "" && c.Category != CategoryAll {
		conds = append(conds, "category = ?")
		args = append(args, string(c.Category))
	}

	if c.Search != "" {
		// Disjunctive case-insensitive substring match across title,
		// description, director and the genre/cast JSON arrays. The
		// client value is escaped so it matches literally.
		pattern := "%" + escapeLike(c.Search) + "%"
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR director LIKE ? ESCAPE '\' OR genres LIKE ? ESCAPE '\' OR cast_list LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	if c.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, c.Year)
	}

	if c.Genre != "" {
		// Exact membership, case-insensitive. Not LIKE: the client
		// value must never act as a pattern.
		conds = append(conds, `EXISTS (SELECT 1 FROM json_each(catalog_records.genres) WHERE json_each.value = ? COLLATE NOCASE)`)
		args = append(args, c.Genre)
	}

	if c.IsDualAudio {
		conds = append(conds, "is_dual_audio = TRUE")
	}

	if c.Quality != "" {
		// The record must carry a link group for the tier with at least
		// one usable mirror; placeholder groups do not count.
		conds = append(conds, `EXISTS (
			SELECT 1 FROM json_each(catalog_records.download_links) AS dl
			WHERE json_extract(dl.value, '$.quality') = ?
			  AND EXISTS (
				SELECT 1 FROM json_each(dl.value, '$.servers') AS sv
				WHERE json_extract(sv.value, '$.url') <> ''
			  )
		)`)
		args = append(args, string(c.Quality))
	}

	return strings.Join(conds, " AND "), args
}

// OrderBy returns the sort clause for listing queries: newest first, with
// a stable id tiebreak.
func (c Criteria) OrderBy() string {
	return "created_at DESC, id DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes the LIKE metacharacters in a client-supplied value
// so it only ever matches literally. Patterns built from it must carry
// ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
