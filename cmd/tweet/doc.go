// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Tweet drafts tweets about tech news from the command line.

It is the terminal twin of tweetbot: it fetches recent technology
headlines, drafts a tweet about one of them with an LLM and waits for
approval on standard input. Type 'post' to publish the draft on X, 'new' to
draft a different article or 'exit' to quit.

# Usage

	$ tweet [flags...]

# Environment variables

  - NEWS_API_KEY: NewsAPI key, used unless RSS sources are configured.
  - GEMINI_API_KEY: Gemini API key.
  - OPENAI_API_KEY: OpenAI API key, used when GEMINI_API_KEY is not set.
  - TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN,
    TWITTER_ACCESS_TOKEN_SECRET: X API OAuth 1.0a user context credentials.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/tweetbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
