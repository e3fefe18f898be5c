// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package twitter implements a minimal client for the X (formerly Twitter)
// API v2, sufficient for posting tweets.
package twitter

import (
	"context"
	"net/http"
	"strings"

	"go.astrophena.name/tweetbot/internal/request"
	"go.astrophena.name/tweetbot/internal/util/syncx"

	"github.com/dghubble/oauth1"
)

const apiURL = "https://api.twitter.com/2"

// Client posts tweets on behalf of a single user using OAuth 1.0a user
// context credentials.
type Client struct {
	// ConsumerKey and ConsumerSecret identify the application.
	ConsumerKey    string
	ConsumerSecret string
	// AccessToken and AccessTokenSecret authorize the acting user.
	AccessToken       string
	AccessTokenSecret string

	// HTTPClient is an optional HTTP client to use for requests. If set,
	// OAuth signing is skipped; this is meant for tests.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer

	signing syncx.Lazy[*http.Client]
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return c.signing.Get(func() *http.Client {
		config := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret)
		token := oauth1.NewToken(c.AccessToken, c.AccessTokenSecret)
		return config.Client(oauth1.NoContext, token)
	})
}

type postTweetRequest struct {
	Text string `json:"text"`
}

type postTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// PostTweet posts a tweet and returns its ID.
func (c *Client) PostTweet(ctx context.Context, text string) (id string, err error) {
	resp, err := request.Make[postTweetResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        apiURL + "/tweets",
		Body:       postTweetRequest{Text: text},
		HTTPClient: c.httpClient(),
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// Publish posts text as a tweet, discarding the tweet ID.
func (c *Client) Publish(ctx context.Context, text string) error {
	_, err := c.PostTweet(ctx, text)
	return err
}
