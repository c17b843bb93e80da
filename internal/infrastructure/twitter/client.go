package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

const (
	defaultSearchURL = "https://api.twitter.com/2/tweets/search/recent"

	// The recent-search API accepts max_results in [10, 100].
	minResults = 10
	maxResults = 100
)

// Client searches recent tweets through the v2 search API with an app-only
// bearer token. Retweets and non-English tweets are excluded from queries.
type Client struct {
	bearerToken string
	searchURL   string
	httpClient  *http.Client
}

var _ ports.PlatformSource = (*Client)(nil)

// NewClient wires the bearer token and an HTTP client; a nil client gets a
// 20-second timeout default.
func NewClient(cfg config.TwitterConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		bearerToken: cfg.BearerToken,
		searchURL:   defaultSearchURL,
		httpClient:  client,
	}
}

// Platform identifies the source inside the registry.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformTwitter
}

type searchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			LikeCount    int `json:"like_count"`
			ReplyCount   int `json:"reply_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Username      string `json:"username"`
			Verified      bool   `json:"verified"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
}

// Search queries the recent-search endpoint for the keyword. The window is
// not passed through: the API is hard-bounded to the last seven days and the
// poll cadence keeps results fresh. Failures surface as
// *domain.SourceUnavailableError.
func (c *Client) Search(ctx context.Context, keyword string, window domain.TimeWindow, limit int) ([]domain.RawItem, error) {
	if limit < minResults {
		limit = minResults
	}
	if limit > maxResults {
		limit = maxResults
	}

	params := url.Values{}
	params.Set("query", keyword+" -is:retweet lang:en")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("tweet.fields", "created_at,author_id,public_metrics")
	params.Set("user.fields", "name,username,verified,public_metrics")
	params.Set("expansions", "author_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformTwitter, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformTwitter, Err: fmt.Errorf("search tweets: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformTwitter, Err: fmt.Errorf("twitter search returned %s", resp.Status)}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.SourceUnavailableError{Platform: domain.PlatformTwitter, Err: fmt.Errorf("decode response: %w", err)}
	}

	users := map[string]struct {
		Name      string
		Username  string
		Verified  bool
		Followers int
	}{}
	for _, user := range payload.Includes.Users {
		users[user.ID] = struct {
			Name      string
			Username  string
			Verified  bool
			Followers int
		}{user.Name, user.Username, user.Verified, user.PublicMetrics.FollowersCount}
	}

	items := make([]domain.RawItem, 0, len(payload.Data))
	for _, tweet := range payload.Data {
		author := tweet.AuthorID
		postURL := "https://twitter.com/i/status/" + tweet.ID

		metadata := map[string]any{
			"authorId": tweet.AuthorID,
			"publicMetrics": map[string]int{
				"retweetCount": tweet.PublicMetrics.RetweetCount,
				"likeCount":    tweet.PublicMetrics.LikeCount,
				"replyCount":   tweet.PublicMetrics.ReplyCount,
				"quoteCount":   tweet.PublicMetrics.QuoteCount,
			},
		}

		if user, ok := users[tweet.AuthorID]; ok {
			author = user.Username
			postURL = fmt.Sprintf("https://twitter.com/%s/status/%s", user.Username, tweet.ID)
			metadata["authorName"] = user.Name
			metadata["authorUsername"] = user.Username
			metadata["authorVerified"] = user.Verified
			metadata["authorFollowers"] = user.Followers
		}

		createdAt := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			createdAt = parsed
		}

		items = append(items, domain.RawItem{
			Platform:  domain.PlatformTwitter,
			ID:        tweet.ID,
			Body:      tweet.Text,
			Author:    author,
			PostURL:   postURL,
			CreatedAt: createdAt,
			Metadata:  metadata,
		})
	}

	return items, nil
}
