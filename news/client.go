// Package news fetches top headlines from the external news API.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/samber/lo"

	"tonebot/contract"
)

const (
	// DefaultBaseURL is the third-party headlines endpoint.
	DefaultBaseURL = "https://newsapi.org/v2/top-headlines"
	// DefaultCountry scopes the headlines.
	DefaultCountry = "in"
	// MaxHeadlines bounds how many articles are ever returned.
	MaxHeadlines = 5
)

type Client struct {
	baseURL string
	apiKey  string
	country string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		country: DefaultCountry,
		http:    http.DefaultClient,
		log:     log,
	}
}

// WithBaseURL points the client elsewhere, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type articlePayload struct {
	Title  string `json:"title"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	URL string `json:"url"`
}

// TopHeadlines returns at most MaxHeadlines current articles, in the
// order the API ranks them.
func (c *Client) TopHeadlines(ctx context.Context) ([]contract.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("news API key is not configured")
	}

	query := url.Values{}
	query.Set("country", c.country)
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Articles []articlePayload `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	top := lo.Slice(payload.Articles, 0, MaxHeadlines)
	return lo.Map(top, func(a articlePayload, _ int) contract.Article {
		return contract.Article{Title: a.Title, Source: a.Source.Name, URL: a.URL}
	}), nil
}
