// Package twitter reads a user's recent posts from the X (Twitter) v2 API.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsrelay/internal/model"
)

// DefaultBaseURL is the public v2 API root.
const DefaultBaseURL = "https://api.twitter.com/2"

// DefaultMaxResults is the timeline page size. The API rejects values below 5.
const DefaultMaxResults = 5

const (
	maxBodySize  = 2 * 1024 * 1024
	maxErrorBody = 512
)

// ErrUserNotFound is returned when a username lookup yields no user id.
var ErrUserNotFound = errors.New("user not found")

// APIError is a non-200 response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a minimal read-only API client authenticated with an app
// bearer token.
type Client struct {
	client         HTTPClient
	baseURL        string
	bearer         string
	maxResults     int
	excludeReplies bool
}

// Option configures a Client.
type Option func(*Client)

// WithMaxResults sets the timeline page size.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithExcludeReplies asks the API to leave replies out of timeline pages.
func WithExcludeReplies(v bool) Option {
	return func(c *Client) { c.excludeReplies = v }
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(client HTTPClient, baseURL, bearer string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		bearer:     bearer,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type userResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type tweet struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CreatedAt   string `json:"created_at"`
	Attachments *struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
}

type timelineResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Media []media `json:"media"`
	} `json:"includes"`
}

// LookupUserID resolves a username to its stable numeric user id.
func (c *Client) LookupUserID(ctx context.Context, username string) (string, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return "", ErrUserNotFound
	}

	var resp userResponse
	if err := c.get(ctx, "/users/by/username/"+url.PathEscape(username), nil, &resp); err != nil {
		return "", fmt.Errorf("lookup user %q: %w", username, err)
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return "", fmt.Errorf("lookup user %q: %w", username, ErrUserNotFound)
	}
	return resp.Data.ID, nil
}

// Timeline returns the user's most recent posts, newest first as the API
// orders them, with photo and video attachments resolved.
func (c *Client) Timeline(ctx context.Context, userID string) ([]model.TimelineItem, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(c.maxResults))
	q.Set("tweet.fields", "created_at,attachments,referenced_tweets")
	q.Set("expansions", "attachments.media_keys")
	q.Set("media.fields", "url,preview_image_url,type")
	if c.excludeReplies {
		q.Set("exclude", "replies")
	}

	var resp timelineResponse
	if err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/tweets", q, &resp); err != nil {
		return nil, fmt.Errorf("user timeline %s: %w", userID, err)
	}
	return toItems(resp), nil
}

func toItems(resp timelineResponse) []model.TimelineItem {
	byKey := make(map[string]media, len(resp.Includes.Media))
	for _, m := range resp.Includes.Media {
		byKey[m.MediaKey] = m
	}

	items := make([]model.TimelineItem, 0, len(resp.Data))
	for _, t := range resp.Data {
		item := model.TimelineItem{
			ID:      t.ID,
			Text:    t.Text,
			IsReply: isReply(t),
		}
		if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			item.CreatedAt = ts
		}
		if t.Attachments != nil {
			for _, key := range t.Attachments.MediaKeys {
				m, ok := byKey[key]
				if !ok {
					continue
				}
				item.Media = append(item.Media, model.MediaRef{
					Kind:       model.MediaKind(m.Type),
					URL:        m.URL,
					PreviewURL: m.PreviewImageURL,
				})
			}
		}
		items = append(items, item)
	}
	return items
}

func isReply(t tweet) bool {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" {
			return true
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("User-Agent", "NewsRelay/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
