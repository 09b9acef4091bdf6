// Package hikerapi provides a client for the HikerAPI Instagram REST API.
//
// This package enables reelscout to:
// - Resolve usernames to account ids and profile details
// - Page through hashtag top, recent and clips feeds
// - Page through a user's posts and clips
// - Sample a profile's latest posts and reels
package hikerapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Schema describes HikerAPI media records and chunk responses.
var Schema = scrape.Schema{
	ItemsField:   "items",
	CursorFields: []string{"max_id", "next_max_id", "end_cursor", "next_end_cursor"},
	ID:           scrape.Field{"code"},
	Author:       scrape.Field{"user", "username"},
	Timestamps: []scrape.Field{
		{"taken_at_ts"},
		{"taken_at_timestamp"},
		{"taken_at"},
	},
	Plays:         []scrape.Field{{"play_count"}, {"view_count"}},
	Likes:         []scrape.Field{{"like_count"}},
	Comments:      []scrape.Field{{"comment_count"}},
	MetricsHidden: scrape.Field{"like_and_view_counts_disabled"},
	Permalink: func(code, _ string) string {
		return fmt.Sprintf("https://www.instagram.com/p/%s/", code)
	},
	ProfileLink: ProfileURL,
}

type endpoint struct {
	path        string
	label       string
	idParam     string
	cursorParam string
}

var (
	userMedias = endpoint{
		path: "/v1/user/medias/chunk", label: "user_medias_chunk_v1",
		idParam: "user_id", cursorParam: "end_cursor",
	}
	userClips = endpoint{
		path: "/v1/user/clips/chunk", label: "user_clips_chunk_v1",
		idParam: "user_id", cursorParam: "end_cursor",
	}
	hashtagTop = endpoint{
		path: "/v1/hashtag/medias/top/chunk", label: "hashtag_medias_top_chunk_v1",
		idParam: "name", cursorParam: "max_id",
	}
	hashtagRecent = endpoint{
		path: "/v1/hashtag/medias/top/recent/chunk", label: "hashtag_medias_top_recent_chunk_v1",
		idParam: "name", cursorParam: "max_id",
	}
	hashtagClips = endpoint{
		path: "/v1/hashtag/medias/clips/chunk", label: "hashtag_medias_clips_chunk_v1",
		idParam: "name", cursorParam: "max_id",
	}
)

var hashtagFeeds = map[scrape.Feed]endpoint{
	scrape.FeedTop:    hashtagTop,
	scrape.FeedRecent: hashtagRecent,
	scrape.FeedClips:  hashtagClips,
}

var userFeeds = map[scrape.Feed]endpoint{
	scrape.FeedPosts: userMedias,
	scrape.FeedClips: userClips,
}

// APIError is a non-success HikerAPI response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// newAPIError prefers the message HikerAPI put in the body.
func newAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if msg, ok := payload.Detail.(string); ok && msg != "" {
			return &APIError{StatusCode: statusCode, Message: msg}
		}
		if payload.Error != "" {
			return &APIError{StatusCode: statusCode, Message: payload.Error}
		}
		if payload.Message != "" {
			return &APIError{StatusCode: statusCode, Message: payload.Message}
		}
	}
	return &APIError{StatusCode: statusCode, Message: statusMessage(statusCode)}
}

func statusMessage(statusCode int) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return "HikerAPI authentication failed - check HIKERAPI_TOKEN"
	case http.StatusPaymentRequired:
		return "HikerAPI balance exhausted - top up your account"
	case http.StatusForbidden:
		return "HikerAPI access denied - check your plan permissions"
	case http.StatusNotFound:
		return "HikerAPI resource not found"
	case http.StatusTooManyRequests:
		return "HikerAPI rate limit exceeded - please try again later"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "HikerAPI server error - please try again later"
	default:
		return "HikerAPI request failed"
	}
}
