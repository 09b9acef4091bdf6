package scrape

import "context"

// Adapter fetches pages of one concrete (target, feed) stream. Fetch returns
// the page and the label of the endpoint that served it. An empty cursor
// requests the first page.
type Adapter interface {
	Fetch(ctx context.Context, cursor string) (PageResult, string, error)
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, cursor string) (PageResult, string, error)

func (f AdapterFunc) Fetch(ctx context.Context, cursor string) (PageResult, string, error) {
	return f(ctx, cursor)
}

// Source is an opened stream ready for pagination.
type Source struct {
	// Label is stamped on every row, e.g. "hashtag_top".
	Label   string
	Adapter Adapter
	// Profile is set when opening the stream required a user lookup.
	Profile *Profile
}

// Provider is a content backend.
type Provider interface {
	Name() string
	Schema() Schema
	Supports(method Method, feed Feed) bool

	// Open resolves req's target and returns a stream for req.Feed.
	// It is never called with FeedAuto.
	Open(ctx context.Context, req Request) (*Source, error)
}

// Profiler is implemented by providers that can describe a user account.
type Profiler interface {
	FetchProfile(ctx context.Context, username string) (*ProfileSummary, error)
}

// Profile describes the owner of a username target.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Biography string `json:"biography,omitempty"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Posts     int64  `json:"posts"`
	Verified  bool   `json:"verified"`
	Private   bool   `json:"private"`
	URL       string `json:"url"`
}

// ProfileSummary is a profile plus a first look at its posts and reels.
type ProfileSummary struct {
	Profile     Profile `json:"profile"`
	PostsCount  int     `json:"posts_count"`
	ReelsCount  int     `json:"reels_count"`
	SamplePosts []Row   `json:"sample_posts"`
	SampleReels []Row   `json:"sample_reels"`
}
