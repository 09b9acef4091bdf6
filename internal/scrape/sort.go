package scrape

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey orders rows for presentation. All keys sort descending.
type SortKey string

const (
	SortNone       SortKey = ""
	SortEngagement SortKey = "engagement"
	SortPlays      SortKey = "plays"
	SortLikes      SortKey = "likes"
	SortComments   SortKey = "comments"
	SortDate       SortKey = "date"
)

// ParseSortKey accepts a key in any case. "none" and the empty string keep
// fetch order.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "none", SortNone:
		return SortNone, nil
	case SortEngagement, SortPlays, SortLikes, SortComments, SortDate:
		return k, nil
	default:
		return "", invalidf("unknown sort key %q", s)
	}
}

// SortRows returns a sorted copy of rows. Ties keep fetch order.
func SortRows(rows []Row, key SortKey) []Row {
	out := slices.Clone(rows)
	if key == SortNone {
		return out
	}
	value := func(r Row) int64 {
		switch key {
		case SortPlays:
			return r.Plays
		case SortLikes:
			return r.Likes
		case SortComments:
			return r.Comments
		case SortDate:
			return r.TakenAt
		default:
			return r.Engagement
		}
	}
	slices.SortStableFunc(out, func(a, b Row) int {
		return cmp.Compare(value(b), value(a))
	})
	return out
}
