// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Tweetbot is a Telegram bot that drafts tweets about tech news.

It fetches recent technology headlines, picks one, writes a tweet about it
with an LLM and sends the draft to a Telegram chat for approval. Reply with
'post' to publish the draft on X, 'new' to draft a different article or
'exit' to quit. The bot shuts down on its own after a period of inactivity.

# Usage

	$ tweetbot [flags...]

# Environment variables

The bot is configured through environment variables:

  - TELEGRAM_TOKEN: Telegram bot token (required).
  - CHAT_ID: Telegram chat to interact with (required).
  - NEWS_API_KEY: NewsAPI key, used unless RSS sources are configured.
  - GEMINI_API_KEY: Gemini API key.
  - OPENAI_API_KEY: OpenAI API key, used when GEMINI_API_KEY is not set.
  - TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN,
    TWITTER_ACCESS_TOKEN_SECRET: X API OAuth 1.0a user context credentials.
  - STATE_DIRECTORY: directory for the draft artifact. Defaults to
    $XDG_STATE_HOME/tweetbot.

# Configuration file

Optionally, pass -config pointing to a Starlark file that defines RSS
sources and tweaks bot behavior:

	sources = [
	    source(url = "https://hnrss.org/frontpage", title = "Hacker News"),
	]

	timeout = "20m"
*/
package main

import (
	_ "embed"

	"go.astrophena.name/tweetbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
