// Package inference talks to the HTTP language-generation collaborator.
// Every endpoint is a small POST with a JSON body; failures are returned
// to the caller, which substitutes a fixed-tone fallback.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tonebot/contract"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     log,
	}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) AnalyzeMood(ctx context.Context, text string) (contract.Mood, error) {
	var out struct {
		Mood   string `json:"mood"`
		Phrase string `json:"roman_urdu_phrase"`
	}
	err := c.post(ctx, "/analyze-mood", map[string]string{"text": text}, &out)
	return contract.Mood{Mood: out.Mood, Phrase: out.Phrase}, err
}

func (c *Client) ToneReply(ctx context.Context, conversation string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	err := c.post(ctx, "/tone-aware-reply", map[string]string{"context": conversation}, &out)
	return out.Reply, err
}

func (c *Client) ReplyByTone(ctx context.Context, tone string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	err := c.post(ctx, "/generate-reply-by-tone", map[string]string{"tone": tone}, &out)
	return out.Reply, err
}

func (c *Client) Joke(ctx context.Context) (string, error) {
	var out struct {
		Joke string `json:"joke"`
	}
	err := c.post(ctx, "/joke", nil, &out)
	return out.Joke, err
}

func (c *Client) Roast(ctx context.Context) (string, error) {
	var out struct {
		Roast string `json:"roast"`
	}
	err := c.post(ctx, "/roast", nil, &out)
	return out.Roast, err
}

func (c *Client) Fact(ctx context.Context) (string, error) {
	var out struct {
		Fact string `json:"fact"`
	}
	err := c.post(ctx, "/fact", nil, &out)
	return out.Fact, err
}

func (c *Client) Quote(ctx context.Context, kind string) (string, error) {
	var out struct {
		Quote string `json:"quote"`
	}
	err := c.post(ctx, "/quote", map[string]string{"type": kind}, &out)
	return out.Quote, err
}

func (c *Client) SummarizeNews(ctx context.Context, title string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	err := c.post(ctx, "/summarize-news", map[string]string{"title": title}, &out)
	return out.Summary, err
}
