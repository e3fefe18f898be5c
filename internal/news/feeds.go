// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package news

import (
	"context"
	"errors"
	"net/http"

	"go.astrophena.name/tweetbot/internal/request"
	"go.astrophena.name/tweetbot/internal/version"

	"github.com/mmcdole/gofeed"
)

// FeedSource fetches articles from a list of RSS or Atom feeds.
type FeedSource struct {
	// URLs is a list of feed URLs.
	URLs []string
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Logf, if set, is used to report feeds that failed to fetch. A partial
	// batch is not an error as long as at least one feed succeeds.
	Logf func(format string, args ...any)

	fp *gofeed.Parser
}

// Fetch fetches all configured feeds and returns their items as one batch.
func (s *FeedSource) Fetch(ctx context.Context) ([]Item, error) {
	if s.fp == nil {
		s.fp = gofeed.NewParser()
	}

	httpc := s.HTTPClient
	if httpc == nil {
		httpc = request.DefaultClient
	}

	var (
		items   []Item
		lastErr error
	)
	for _, url := range s.URLs {
		feed, err := s.fetchFeed(ctx, httpc, url)
		if err != nil {
			lastErr = err
			if s.Logf != nil {
				s.Logf("Fetching feed %q failed: %v", url, err)
			}
			continue
		}
		for _, fi := range feed.Items {
			items = append(items, Item{
				Title:       fi.Title,
				Description: fi.Description,
				Source:      feed.Title,
				URL:         fi.Link,
			})
		}
	}

	admitted := admit(items)
	if len(admitted) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoArticles
	}
	return admitted, nil
}

func (s *FeedSource) fetchFeed(ctx context.Context, httpc *http.Client, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.New(res.Status)
	}

	return s.fp.Parse(res.Body)
}
