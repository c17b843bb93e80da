package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

const (
	defaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	defaultSearchURL = "https://oauth.reddit.com/search"

	// Reddit rejects listing limits above 100.
	maxLimit = 100

	// Tokens are refreshed this long before they actually expire.
	tokenExpiryMargin = time.Minute
)

// Client searches Reddit posts and comments through the OAuth search API
// using app-only (client credentials) auth.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	tokenURL     string
	searchURL    string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ ports.PlatformSource = (*Client)(nil)

// NewClient wires credentials and an HTTP client; a nil client gets a
// 20-second timeout default.
func NewClient(cfg config.RedditConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
		tokenURL:     defaultTokenURL,
		searchURL:    defaultSearchURL,
		httpClient:   client,
	}
}

// Platform identifies the source inside the registry.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformReddit
}

// Search queries posts and comments matching the keyword within the window.
// Both listings share the single limit; any transport or auth failure
// surfaces as *domain.SourceUnavailableError.
func (c *Client) Search(ctx context.Context, keyword string, window domain.TimeWindow, limit int) ([]domain.RawItem, error) {
	posts, err := c.searchListing(ctx, keyword, window, limit, "link")
	if err != nil {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformReddit, Err: err}
	}

	comments, err := c.searchListing(ctx, keyword, window, limit, "comment")
	if err != nil {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformReddit, Err: err}
	}

	return append(posts, comments...), nil
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingItem `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Body         string  `json:"body"`
	BodyHTML     string  `json:"body_html"`
	Author       string  `json:"author"`
	Permalink    string  `json:"permalink"`
	Subreddit    string  `json:"subreddit"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	CreatedUTC   float64 `json:"created_utc"`
}

func (c *Client) searchListing(ctx context.Context, keyword string, window domain.TimeWindow, limit int, kind string) ([]domain.RawItem, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("q", keyword)
	params.Set("type", kind)
	params.Set("sort", "new")
	params.Set("t", string(window))
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search returned %s", resp.Status)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	items := make([]domain.RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		items = append(items, toRawItem(child.Data, kind))
	}

	return items, nil
}

func toRawItem(entry listingItem, kind string) domain.RawItem {
	item := domain.RawItem{
		Platform:  domain.PlatformReddit,
		ID:        entry.ID,
		Author:    entry.Author,
		PostURL:   "https://reddit.com" + entry.Permalink,
		CreatedAt: time.Unix(int64(entry.CreatedUTC), 0).UTC(),
	}

	if kind == "link" {
		item.Title = entry.Title
		item.Body = entry.Selftext
		item.BodyHTML = entry.SelftextHTML
		item.Metadata = map[string]any{
			"subreddit":   entry.Subreddit,
			"score":       entry.Score,
			"numComments": entry.NumComments,
			"createdUtc":  entry.CreatedUTC,
		}
		return item
	}

	item.Body = entry.Body
	item.BodyHTML = entry.BodyHTML
	item.Metadata = map[string]any{
		"subreddit":  entry.Subreddit,
		"score":      entry.Score,
		"createdUtc": entry.CreatedUTC,
	}
	return item
}

// token returns a cached app token, requesting a fresh one when the cached
// token is within the expiry margin.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit token endpoint returned %s", resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("reddit token response missing access_token")
	}

	c.accessToken = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin)

	return c.accessToken, nil
}
