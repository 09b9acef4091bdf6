package scrape

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_BuildsRowFromRawItem(t *testing.T) {
	item := post("ABC123", 2, 1200, 80, 7)
	item["like_and_view_counts_disabled"] = true

	row, ok := Normalize(item, testSchema, "hashtag_top", "#dogs")

	require.True(t, ok)
	assert.Equal(t, "ABC123", row.ID)
	assert.Equal(t, "https://example.test/p/ABC123/", row.URL)
	assert.Equal(t, "alice", row.Username)
	assert.Equal(t, int64(1200), row.Plays)
	assert.Equal(t, int64(80), row.Likes)
	assert.Equal(t, int64(7), row.Comments)
	assert.Equal(t, int64(1287), row.Engagement, "engagement should be plays + likes + comments")
	assert.True(t, row.MetricsDisabled)
	assert.Equal(t, "2026-03-01", row.Date)
	assert.Equal(t, "hashtag_top", row.Source)
	assert.Equal(t, "#dogs", row.Discovery)
	assert.Empty(t, row.Target, "only batches tag rows with a target")
}

func TestNormalize_IsDeterministic(t *testing.T) {
	item := post("same", 5, 10, 20, 30)

	first, ok1 := Normalize(item, testSchema, "hashtag_recent", "#cats")
	second, ok2 := Normalize(item, testSchema, "hashtag_recent", "#cats")

	assert.True(t, ok1 && ok2)
	assert.Equal(t, first, second, "normalizing the same item twice should give the same row")
}

func TestNormalize_DoesNotMutateRawItem(t *testing.T) {
	item := post("keep", 1, 1, 2, 3)
	before, err := json.Marshal(item)
	require.NoError(t, err)

	Normalize(item, testSchema, "s", "#d")
	Passes(item, testSchema, 0, Thresholds{})

	after, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestNormalize_SkipsItemsWithoutIdentifier(t *testing.T) {
	item := post("", 1, 1, 1, 1)

	_, ok := Normalize(item, testSchema, "s", "#d")

	assert.False(t, ok, "an item without an identifier should be dropped")
}

func TestNormalize_DefaultsMissingFields(t *testing.T) {
	row, ok := Normalize(RawItem{"code": "bare"}, testSchema, "s", "#d")

	require.True(t, ok)
	assert.Equal(t, "unknown", row.Username)
	assert.Equal(t, DateUnknown, row.Date)
	assert.Zero(t, row.TakenAt)
	assert.Zero(t, row.Engagement)
}

func TestNormalize_AuthorDetails(t *testing.T) {
	schema := testSchema
	schema.AuthorFollowers = []Field{{"author_stats", "followers"}}
	schema.Region = Field{"poi", "name"}
	schema.ProfileLink = func(author string) string { return "https://example.test/@" + author }

	row, ok := Normalize(RawItem{
		"code":         "c1",
		"user":         map[string]any{"username": "alice"},
		"author_stats": map[string]any{"followers": 42},
		"poi":          map[string]any{"name": "Porto"},
	}, schema, "s", "#d")
	require.True(t, ok)
	assert.Equal(t, int64(42), row.AuthorFollowers)
	assert.Equal(t, "https://example.test/@alice", row.AuthorURL)
	assert.Equal(t, "Porto", row.Region)

	bare, _ := Normalize(RawItem{"code": "c2"}, schema, "s", "#d")
	assert.Empty(t, bare.AuthorURL, "unknown authors have no profile link")
	assert.Empty(t, bare.Region)
}

func TestNormalize_PlaysFallBackToViewCount(t *testing.T) {
	item := RawItem{"code": "v", "play_count": "n/a", "view_count": json.Number("42")}

	row, _ := Normalize(item, testSchema, "s", "#d")

	assert.Equal(t, int64(42), row.Plays, "a non-integer play count should fall through to views")
}

func TestNormalize_TimestampPrefersFirstPositiveField(t *testing.T) {
	item := RawItem{"code": "t", "taken_at_ts": json.Number("0"), "taken_at": json.Number("1700000000.9")}

	row, _ := Normalize(item, testSchema, "s", "#d")

	assert.Equal(t, int64(1700000000), row.TakenAt)
	assert.Equal(t, "2023-11-14", row.Date)
}

func TestPasses_RecencyCutoff(t *testing.T) {
	cutoff := testNow.Add(-24 * time.Hour).Unix()
	th := Thresholds{}

	assert.True(t, Passes(post("fresh", 1, 0, 0, 0), testSchema, cutoff, th))
	assert.False(t, Passes(post("stale", 48, 0, 0, 0), testSchema, cutoff, th), "items older than the cutoff should be dropped")

	edge := RawItem{"code": "edge", "taken_at": cutoff}
	assert.True(t, Passes(edge, testSchema, cutoff, th), "an item exactly at the cutoff should pass")
}

func TestPasses_UndatedItems(t *testing.T) {
	undated := RawItem{"code": "u", "like_count": int64(100)}

	assert.False(t, Passes(undated, testSchema, 0, Thresholds{}), "undated items should be excluded by default")
	assert.True(t, Passes(undated, testSchema, 0, Thresholds{IncludeUndated: true}))
}

func TestPasses_EngagementFloors(t *testing.T) {
	item := post("x", 1, 500, 50, 5)
	cutoff := testNow.AddDate(-1, 0, 0).Unix()

	assert.True(t, Passes(item, testSchema, cutoff, Thresholds{MinPlays: 500, MinLikes: 50, MinComments: 5}), "floors are inclusive")
	assert.False(t, Passes(item, testSchema, cutoff, Thresholds{MinPlays: 501}))
	assert.False(t, Passes(item, testSchema, cutoff, Thresholds{MinLikes: 51}))
	assert.False(t, Passes(item, testSchema, cutoff, Thresholds{MinComments: 6}))
}

func TestPasses_TighterThresholdsKeepSubset(t *testing.T) {
	items := []RawItem{
		post("a", 1, 10, 1, 0),
		post("b", 1, 100, 10, 1),
		post("c", 30*24, 1000, 100, 10),
		post("d", 1, 5000, 500, 50),
		{"code": "e", "play_count": int64(9000)},
	}
	loose := Thresholds{MinPlays: 10, IncludeUndated: true}
	tight := Thresholds{MinPlays: 100, MinLikes: 10}
	looseCutoff := testNow.AddDate(0, 0, -365).Unix()
	tightCutoff := testNow.AddDate(0, 0, -7).Unix()

	kept := map[string]bool{}
	for _, it := range items {
		if Passes(it, testSchema, looseCutoff, loose) {
			kept[it["code"].(string)] = true
		}
	}
	for _, it := range items {
		if Passes(it, testSchema, tightCutoff, tight) {
			assert.True(t, kept[it["code"].(string)], "item %v passed tight thresholds but not loose ones", it["code"])
		}
	}
}
