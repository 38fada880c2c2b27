package timezone

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Search returns zones matching query, at most limit of them (limit <= 0
// means no limit).
//
// An empty query matches nothing. Case-insensitive substring matches win and
// keep the sorted order of zones; when there are none, zones are ranked by
// fuzzy match score instead.
func Search(zones []string, query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	needle := strings.ToLower(query)
	var matches []string
	for _, z := range zones {
		if strings.Contains(strings.ToLower(z), needle) {
			matches = append(matches, z)
		}
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		// fuzzy treats spaces literally; zone ids use underscores
		fq := strings.ReplaceAll(query, " ", "_")
		for _, m := range fuzzy.Find(fq, zones) {
			matches = append(matches, m.Str)
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
