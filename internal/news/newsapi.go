// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package news

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.astrophena.name/tweetbot/internal/request"
)

const newsAPIURL = "https://newsapi.org/v2"

// ErrNoArticles is returned when a source responded, but had nothing usable
// to offer.
var ErrNoArticles = errors.New("no articles found")

// Client is a very minimal client for the NewsAPI top headlines endpoint.
type Client struct {
	// APIKey is the API key used for authentication.
	APIKey string
	// Category is the headlines category. Defaults to "technology".
	Category string
	// PageSize is the number of articles to request. Defaults to 15, so there
	// are plenty of articles to cycle through.
	PageSize int
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
}

type headlinesResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Fetch returns the latest headlines, dropping articles that don't pass
// admission. It returns [ErrNoArticles] if nothing usable remains.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	q := url.Values{
		"category": {c.category()},
		"language": {"en"},
		"pageSize": {strconv.Itoa(c.pageSize())},
	}

	resp, err := request.Make[headlinesResponse](ctx, request.Params{
		Method: http.MethodGet,
		URL:    newsAPIURL + "/top-headlines?" + q.Encode(),
		Headers: map[string]string{
			"X-Api-Key": c.APIKey,
		},
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		items = append(items, Item{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
		})
	}

	admitted := admit(items)
	if len(admitted) == 0 {
		return nil, ErrNoArticles
	}
	return admitted, nil
}

func (c *Client) category() string {
	if c.Category != "" {
		return c.Category
	}
	return "technology"
}

func (c *Client) pageSize() int {
	if c.PageSize != 0 {
		return c.PageSize
	}
	return 15
}
