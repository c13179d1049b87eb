package position

import (
	"sort"

	"aster-trading-bot/internal/database"
)

// latestRelationships reduces the append-only relationship log to the one
// authoritative row per tranche: maximum created_at, with the higher id
// breaking created_at ties so same-timestamp inserts stay deterministic.
// Rows without a tranche id form their own group. Output is ordered by
// tranche id, untagged rows last.
func latestRelationships(rows []database.OrderRelationship) []database.OrderRelationship {
	const untagged = -1

	best := make(map[int]database.OrderRelationship)
	for _, r := range rows {
		key := untagged
		if r.TrancheID != nil {
			key = *r.TrancheID
		}
		current, ok := best[key]
		if !ok || newerRelationship(r, current) {
			best[key] = r
		}
	}

	result := make([]database.OrderRelationship, 0, len(best))
	for _, r := range best {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		ki, kj := untagged, untagged
		if result[i].TrancheID != nil {
			ki = *result[i].TrancheID
		}
		if result[j].TrancheID != nil {
			kj = *result[j].TrancheID
		}
		if ki == untagged {
			return false
		}
		if kj == untagged {
			return true
		}
		return ki < kj
	})
	return result
}

func newerRelationship(a, b database.OrderRelationship) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
