package scrape

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Method selects how content is discovered.
type Method string

const (
	MethodHashtag  Method = "hashtag"
	MethodUsername Method = "username"
)

// Feed selects a provider content stream for a target.
type Feed string

const (
	FeedTop    Feed = "top"
	FeedRecent Feed = "recent"
	FeedClips  Feed = "clips"
	FeedPosts  Feed = "posts"

	// FeedAuto reads the top feed first and spills into the recent feed
	// when top alone cannot fill the quota.
	FeedAuto Feed = "auto"
)

const secondsPerDay = 86400

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodHashtag, MethodUsername:
		return m, nil
	default:
		return "", invalidf("unknown discovery method %q (use hashtag or username)", s)
	}
}

// ParseFeed accepts a feed name in any case. Labels starting with "auto",
// such as "auto_(top_to_recent)", select FeedAuto.
func ParseFeed(s string) (Feed, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(v, string(FeedAuto)) {
		return FeedAuto, nil
	}
	switch f := Feed(v); f {
	case FeedTop, FeedRecent, FeedClips, FeedPosts:
		return f, nil
	default:
		return "", invalidf("unknown feed %q", s)
	}
}

// feedsByMethod lists the feeds a method can address at all. Providers may
// support fewer.
var feedsByMethod = map[Method][]Feed{
	MethodHashtag:  {FeedTop, FeedRecent, FeedClips, FeedAuto},
	MethodUsername: {FeedPosts, FeedClips},
}

// Request is the immutable configuration of one scrape. Derive variants with
// the With methods; they return modified copies.
type Request struct {
	Method         Method `json:"method"`
	Target         string `json:"target"`
	Feed           Feed   `json:"feed"`
	MaxItems       int    `json:"max_items"`
	MaxRequests    int    `json:"max_requests"`
	MaxAgeDays     int    `json:"max_age_days"`
	MinPlays       int64  `json:"min_plays"`
	MinLikes       int64  `json:"min_likes"`
	MinComments    int64  `json:"min_comments"`
	IncludeUndated bool   `json:"include_undated"`
	Debug          bool   `json:"debug"`
}

// WithTarget returns a copy of r addressing target.
func (r Request) WithTarget(target string) Request {
	r.Target = target
	return r
}

// WithFeed returns a copy of r reading feed.
func (r Request) WithFeed(feed Feed) Request {
	r.Feed = feed
	return r
}

// WithMaxItems returns a copy of r with a different quota.
func (r Request) WithMaxItems(n int) Request {
	r.MaxItems = n
	return r
}

// WithMaxRequests returns a copy of r with a different request budget.
func (r Request) WithMaxRequests(n int) Request {
	r.MaxRequests = n
	return r
}

// Validate reports the first reason r cannot be sent upstream.
func (r Request) Validate() error {
	if _, err := ParseMethod(string(r.Method)); err != nil {
		return err
	}
	if err := ValidateTarget(r.Method, r.Target); err != nil {
		return err
	}
	if !r.Method.accepts(r.Feed) {
		return invalidf("feed %q is not available for %s discovery", r.Feed, r.Method)
	}
	if r.MaxItems < 1 {
		return invalidf("max_items must be at least 1, got %d", r.MaxItems)
	}
	if r.MaxRequests < 1 {
		return invalidf("max_requests must be at least 1, got %d", r.MaxRequests)
	}
	if r.MaxAgeDays < 0 {
		return invalidf("max_age_days must not be negative, got %d", r.MaxAgeDays)
	}
	if r.MinPlays < 0 || r.MinLikes < 0 || r.MinComments < 0 {
		return invalidf("engagement floors must not be negative")
	}
	return nil
}

func (m Method) accepts(feed Feed) bool {
	for _, f := range feedsByMethod[m] {
		if f == feed {
			return true
		}
	}
	return false
}

// Discovery returns the label rows carry for this request's target:
// "#tag" for hashtags, "@user" for usernames.
func (r Request) Discovery() string {
	return DiscoveryLabel(r.Method, r.Target)
}

// DiscoveryLabel prefixes target according to method.
func DiscoveryLabel(method Method, target string) string {
	if method == MethodUsername {
		return "@" + target
	}
	return "#" + target
}

// Cutoff returns the oldest unix timestamp that passes the recency filter
// when the run starts at now. A window reaching past the epoch admits every
// dated item.
func (r Request) Cutoff(now time.Time) int64 {
	unix := now.Unix()
	if int64(r.MaxAgeDays) > unix/secondsPerDay {
		return math.MinInt64
	}
	return unix - int64(r.MaxAgeDays)*secondsPerDay
}

// Thresholds extracts the filter settings of r.
func (r Request) Thresholds() Thresholds {
	return Thresholds{
		MinPlays:       r.MinPlays,
		MinLikes:       r.MinLikes,
		MinComments:    r.MinComments,
		IncludeUndated: r.IncludeUndated,
	}
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s feed=%s max_items=%d max_requests=%d", r.Method, r.Discovery(), r.Feed, r.MaxItems, r.MaxRequests)
}
