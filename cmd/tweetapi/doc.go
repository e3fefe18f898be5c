// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Tweetapi posts a tweet about tech news on demand over HTTP.

Unlike tweetbot, it is stateless and unattended: every POST /trigger
request fetches recent technology headlines, picks one at random, drafts a
tweet about it with an LLM and posts it to X right away, without an
approval step. Only one run is in flight at a time; concurrent triggers are
rejected.

GET /health reports service health.

# Usage

	$ tweetapi [flags...]

# Environment variables

Same as tweet: NEWS_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY, and the
TWITTER_* OAuth credentials.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/tweetbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
