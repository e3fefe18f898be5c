// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram implements a minimal client for the Telegram Bot API,
// sufficient for sending messages and receiving updates via long polling.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/request"
)

const apiURL = "https://api.telegram.org"

// How many times to retry sending a message when Telegram rate limits us.
const sendRetryLimit = 5

// How long getUpdates keeps the connection open waiting for new updates, in
// seconds.
const longPollTimeout = 30

// longPollClient allows for the server to hold the request for the whole
// long poll window. request.DefaultClient would cut it short.
var longPollClient = &http.Client{
	Timeout: (longPollTimeout + 10) * time.Second,
}

// Client interacts with the Telegram Bot API.
type Client struct {
	// Token is the bot token.
	Token string
	// HTTPClient is an optional HTTP client to use for requests.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
	// Logf specifies a logger to use. If nil, logging is disabled.
	Logf logger.Logf
}

func (c *Client) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// Update is an incoming event received from getUpdates.
type Update struct {
	ID      int64    `json:"update_id"`
	Message *Message `json:"message"`
}

// Message is a chat message.
type Message struct {
	Text string `json:"text"`
	Chat Chat   `json:"chat"`
	From *User  `json:"from,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID int64 `json:"id"`
}

// User represents a Telegram user.
type User struct {
	ID int64 `json:"id"`
}

type apiResponse[Result any] struct {
	OK          bool   `json:"ok"`
	Result      Result `json:"result"`
	Description string `json:"description"`
}

// Call invokes a Bot API method with args and returns the unmarshaled result.
func Call[Result any](ctx context.Context, c *Client, method string, args any) (Result, error) {
	resp, err := request.Make[apiResponse[Result]](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        apiURL + "/bot" + c.Token + "/" + method,
		Body:       args,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		var zero Result
		return zero, err
	}
	if !resp.OK {
		var zero Result
		return zero, fmt.Errorf("telegram: %s failed: %s", method, resp.Description)
	}
	return resp.Result, nil
}

type sendMessageParams struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage sends a text message to the chat, retrying a few times when
// Telegram rate limits sending.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	var err error
	for range sendRetryLimit {
		_, err = Call[*Message](ctx, c, "sendMessage", sendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err == nil {
			return nil
		}
		retryable, wait := isSendingRateLimited(err)
		if !retryable {
			break
		}
		c.logf("Sending rate limited, waiting for %v: chat_id=%d", wait, chatID)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func isSendingRateLimited(err error) (retryable bool, wait time.Duration) {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		return false, 0
	}

	var errorResponse struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(statusErr.Body, &errorResponse); err != nil {
		return false, 0
	}

	return true, time.Duration(errorResponse.Parameters.RetryAfter) * time.Second
}

type getUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates long polls for new updates, starting from offset. It returns as
// soon as at least one update arrives, or with an empty slice after the poll
// window passes.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	httpc := c.HTTPClient
	if httpc == nil {
		httpc = longPollClient
	}
	resp, err := request.Make[apiResponse[[]Update]](ctx, request.Params{
		Method: http.MethodPost,
		URL:    apiURL + "/bot" + c.Token + "/getUpdates",
		Body: getUpdatesParams{
			Offset:         offset,
			Timeout:        longPollTimeout,
			AllowedUpdates: []string{"message"},
		},
		HTTPClient: httpc,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("telegram: getUpdates failed: %s", resp.Description)
	}
	return resp.Result, nil
}
