// internal/jservice/client.go
//
// Client for a jService-compatible trivia API. Implements loader.Source.
//
// Endpoints:
//   - GET {base}/categories?count=N&offset=M → [{id, title, clues_count}]
//   - GET {base}/category?id=N               → {id, title, clues_count, clues:[...]}
//
// Every failure (transport, non-2xx status, undecodable or malformed body)
// is reported as *game.FetchError. Calls are never retried.

package jservice

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

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/loader"
)

// DefaultBaseURL is the public jService API root.
const DefaultBaseURL = "https://jservice.io/api"

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// Client talks to one jService base URL.
type Client struct {
	base string
	http *http.Client
}

// New constructs a Client. A nil hc gets a client with the given timeout
// (zero means no client-side timeout beyond the request context).
func New(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: strings.TrimSuffix(baseURL, "/"), http: hc}
}

// ListCategories fetches one page of category ids and titles.
func (c *Client) ListCategories(ctx context.Context, count, offset int) ([]loader.CategoryRef, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("offset", strconv.Itoa(offset))
	target := c.base + "/categories?" + q.Encode()

	var refs []loader.CategoryRef
	if err := c.getJSON(ctx, "list categories", target, &refs); err != nil {
		return nil, err
	}
	for _, r := range refs {
		if r.ID <= 0 {
			return nil, &game.FetchError{Op: "list categories", Target: target, Err: fmt.Errorf("category with id %d", r.ID)}
		}
	}
	return refs, nil
}

// Category fetches one category with its full clue list.
func (c *Client) Category(ctx context.Context, id int) (*loader.CategoryDetail, error) {
	target := c.base + "/category?id=" + strconv.Itoa(id)

	var d loader.CategoryDetail
	if err := c.getJSON(ctx, "get category", target, &d); err != nil {
		return nil, err
	}
	if d.ID <= 0 || strings.TrimSpace(d.Title) == "" {
		return nil, &game.FetchError{Op: "get category", Target: target, Err: errors.New("missing id or title")}
	}
	return &d, nil
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, op, target string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &game.FetchError{Op: op, Target: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &game.FetchError{Op: op, Target: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return &game.FetchError{Op: op, Target: target, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return &game.FetchError{Op: op, Target: target, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}

	log.Debug().
		Str("op", op).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("jservice request")
	return nil
}
