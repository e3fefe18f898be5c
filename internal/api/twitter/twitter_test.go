// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package twitter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/tweetbot/internal/request"
	"go.astrophena.name/tweetbot/internal/testutil"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testClient(h http.Handler) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			return w.Result(), nil
		}),
	}
}

func TestPostTweet(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("POST api.twitter.com/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		gotBody = testutil.Read(t, r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1234567890","text":"hello"}}`))
	})

	c := &Client{HTTPClient: testClient(mux)}
	id, err := c.PostTweet(t.Context(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, id, "1234567890")

	req := testutil.UnmarshalJSON[map[string]string](t, gotBody)
	testutil.AssertEqual(t, req["text"], "hello")
}

func TestPostTweetError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST api.twitter.com/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"You are not allowed to create a Tweet with duplicate content."}`))
	})

	c := &Client{HTTPClient: testClient(mux)}
	err := c.Publish(t.Context(), "hello")

	var se *request.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want request.StatusError", err)
	}
	testutil.AssertEqual(t, se.StatusCode, http.StatusForbidden)
}

func TestPostTweetScrubsSecrets(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST api.twitter.com/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"bad token hunter2"}`))
	})

	c := &Client{
		HTTPClient: testClient(mux),
		Scrubber:   strings.NewReplacer("hunter2", "[EXPUNGED]"),
	}
	err := c.Publish(t.Context(), "hello")
	testutil.AssertNotContains(t, err.Error(), "hunter2")
	testutil.AssertContains(t, err.Error(), "[EXPUNGED]")
}
