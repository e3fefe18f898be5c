// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/tweetbot/internal/request"
	"go.astrophena.name/tweetbot/internal/testutil"
)

const headlinesJSON = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {
      "source": {"id": null, "name": "The Verge"},
      "title": "New chips announced",
      "description": "Faster than ever.",
      "url": "https://example.com/chips"
    },
    {
      "source": {"id": null, "name": "Wired"},
      "title": "",
      "description": "An article that lost its title.",
      "url": "https://example.com/untitled"
    },
    {
      "source": {"id": null, "name": "Ars Technica"},
      "title": "Rockets land again",
      "description": "",
      "url": "https://example.com/rockets"
    }
  ]
}`

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>Kernel 7.0 released</title>
      <description>Scheduler rewrite.</description>
      <link>https://example.com/kernel</link>
    </item>
    <item>
      <title></title>
      <description>No title here.</description>
      <link>https://example.com/untitled</link>
    </item>
  </channel>
</rss>`

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testClient(m *http.ServeMux) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			w := httptest.NewRecorder()
			m.ServeHTTP(w, r)
			return w.Result(), nil
		}),
	}
}

func TestClientFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET newsapi.org/v2/top-headlines", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("X-Api-Key"), "test")
		testutil.AssertEqual(t, r.URL.Query().Get("category"), "technology")
		testutil.AssertEqual(t, r.URL.Query().Get("pageSize"), "15")
		w.Write([]byte(headlinesJSON))
	})

	c := &Client{APIKey: "test", HTTPClient: testClient(mux)}
	items, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// The untitled article must not be admitted.
	testutil.AssertEqual(t, items, []Item{
		{Title: "New chips announced", Description: "Faster than ever.", Source: "The Verge", URL: "https://example.com/chips"},
		{Title: "Rockets land again", Source: "Ars Technica", URL: "https://example.com/rockets"},
	})
}

func TestClientFetchEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET newsapi.org/v2/top-headlines", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "totalResults": 0, "articles": []}`))
	})

	c := &Client{APIKey: "test", HTTPClient: testClient(mux)}
	if _, err := c.Fetch(context.Background()); !errors.Is(err, ErrNoArticles) {
		t.Fatalf("got %v, want %v", err, ErrNoArticles)
	}
}

func TestClientFetchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET newsapi.org/v2/top-headlines", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	c := &Client{APIKey: "test", HTTPClient: testClient(mux)}
	_, err := c.Fetch(context.Background())
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("got %v, want *request.StatusError", err)
	}
	testutil.AssertEqual(t, statusErr.StatusCode, http.StatusTooManyRequests)
}

func TestFeedSourceFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET example.com/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	})
	mux.HandleFunc("GET example.com/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "I'm a teapot.", http.StatusTeapot)
	})

	s := &FeedSource{
		URLs:       []string{"https://example.com/feed.xml", "https://example.com/broken.xml"},
		HTTPClient: testClient(mux),
		Logf:       t.Logf,
	}
	items, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, items, []Item{
		{Title: "Kernel 7.0 released", Description: "Scheduler rewrite.", Source: "Example Feed", URL: "https://example.com/kernel"},
	})
}

func TestFeedSourceAllFailing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET example.com/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "I'm a teapot.", http.StatusTeapot)
	})

	s := &FeedSource{
		URLs:       []string{"https://example.com/broken.xml"},
		HTTPClient: testClient(mux),
	}
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() expected error, got none")
	}
}

func TestItemValid(t *testing.T) {
	cases := map[string]struct {
		item Item
		want bool
	}{
		"full":             {Item{Title: "t", Description: "d", URL: "u"}, true},
		"no description":   {Item{Title: "t", URL: "u"}, true},
		"no url":           {Item{Title: "t", Description: "d"}, true},
		"only title":       {Item{Title: "t"}, false},
		"no title":         {Item{Description: "d", URL: "u"}, false},
		"empty":            {Item{}, false},
		"only description": {Item{Description: "d"}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, tc.item.Valid(), tc.want)
		})
	}
}
