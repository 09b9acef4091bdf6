// Package lamatok provides a client for the Lamatok TikTok REST API.
//
// This package enables reelscout to:
// - Resolve a hashtag to its TikTok challenge id
// - Page through the videos of a challenge
package lamatok

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

const mediasEndpoint = "hashtag_medias_v1"

// Schema describes Lamatok video records and media pages.
var Schema = scrape.Schema{
	ItemsField:      "itemList",
	CursorFields:    []string{"cursor"},
	HasMoreField:    "hasMore",
	ID:              scrape.Field{"id"},
	Author:          scrape.Field{"author", "uniqueId"},
	Timestamps:      []scrape.Field{{"createTime"}},
	Plays:           []scrape.Field{{"stats", "playCount"}},
	Likes:           []scrape.Field{{"stats", "diggCount"}},
	Comments:        []scrape.Field{{"stats", "commentCount"}},
	AuthorFollowers: []scrape.Field{{"authorStats", "followerCount"}},
	Region:          scrape.Field{"poi", "name"},
	Permalink: func(id, author string) string {
		return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", author, id)
	},
	ProfileLink: func(author string) string {
		return "https://www.tiktok.com/@" + author
	},
}

// APIError is a non-success Lamatok response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError takes "error", then "message" from the body, then falls back
// to the status line.
func newAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
		if text := http.StatusText(statusCode); text != "" {
			msg += " " + text
		}
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}
