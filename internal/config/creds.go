// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/tweetbot/internal/api/twitter"
	"go.astrophena.name/tweetbot/internal/cli"
	"go.astrophena.name/tweetbot/internal/draft"
	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/news"
	"go.astrophena.name/tweetbot/internal/session"
)

// Credentials are the API credentials shared by all front-ends, sourced
// from environment variables. See [LoadCredentials].
type Credentials struct {
	NewsAPIKey        string
	GeminiKey         string
	OpenAIKey         string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// LoadCredentials reads credentials from environment variables through
// getenv.
func LoadCredentials(getenv func(string) string) Credentials {
	return Credentials{
		NewsAPIKey:        getenv("NEWS_API_KEY"),
		GeminiKey:         getenv("GEMINI_API_KEY"),
		OpenAIKey:         getenv("OPENAI_API_KEY"),
		ConsumerKey:       getenv("TWITTER_CONSUMER_KEY"),
		ConsumerSecret:    getenv("TWITTER_CONSUMER_SECRET"),
		AccessToken:       getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: getenv("TWITTER_ACCESS_TOKEN_SECRET"),
	}
}

// Scrubber returns a strings.Replacer that removes the credentials, along
// with any extra secrets, from error messages and logs.
func (c Credentials) Scrubber(extra ...string) *strings.Replacer {
	secrets := []string{
		c.NewsAPIKey,
		c.GeminiKey,
		c.OpenAIKey,
		c.ConsumerKey,
		c.ConsumerSecret,
		c.AccessToken,
		c.AccessTokenSecret,
	}
	var pairs []string
	for _, secret := range append(secrets, extra...) {
		if secret != "" {
			pairs = append(pairs, secret, "[EXPUNGED]")
		}
	}
	return strings.NewReplacer(pairs...)
}

// Validate checks that the credentials cover every adapter that is not
// already present. Adapters injected by tests need no credentials.
func (c Credentials) Validate(cfg *Config, src session.Source, llm draft.LLM, pub session.Publisher, dry bool) error {
	if src == nil && len(cfg.Sources) == 0 && c.NewsAPIKey == "" {
		return fmt.Errorf("%w: NEWS_API_KEY environment variable is not set and no RSS sources are configured", cli.ErrInvalidArgs)
	}
	if llm == nil && c.GeminiKey == "" && c.OpenAIKey == "" {
		return fmt.Errorf("%w: neither GEMINI_API_KEY nor OPENAI_API_KEY environment variable is set", cli.ErrInvalidArgs)
	}
	if pub == nil && !dry {
		for _, cred := range []string{c.ConsumerKey, c.ConsumerSecret, c.AccessToken, c.AccessTokenSecret} {
			if cred == "" {
				return fmt.Errorf("%w: X API credentials are not fully set, see -help for the list", cli.ErrInvalidArgs)
			}
		}
	}
	return nil
}

// Source returns src unchanged if non-nil, otherwise builds the news
// source: configured RSS feeds when present, NewsAPI top headlines
// otherwise.
func (c Credentials) Source(src session.Source, cfg *Config, httpc *http.Client, scrubber *strings.Replacer, logf logger.Logf) session.Source {
	if src != nil {
		return src
	}
	if len(cfg.Sources) > 0 {
		var urls []string
		for _, s := range cfg.Sources {
			urls = append(urls, s.URL)
		}
		return &news.FeedSource{
			URLs:       urls,
			HTTPClient: httpc,
			Logf:       logf,
		}
	}
	return &news.Client{
		APIKey:     c.NewsAPIKey,
		Category:   cfg.Category,
		PageSize:   cfg.PageSize,
		HTTPClient: httpc,
		Scrubber:   scrubber,
	}
}

// LLM returns llm unchanged if non-nil, otherwise builds the completion
// backend: Gemini when GEMINI_API_KEY is set, OpenAI otherwise. The
// returned close func, if non-nil, must be called on shutdown.
func (c Credentials) LLM(ctx context.Context, llm draft.LLM, model string) (draft.LLM, func() error, error) {
	if llm != nil {
		return llm, nil, nil
	}
	if c.GeminiKey != "" {
		g, err := draft.NewGemini(ctx, c.GeminiKey, model)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}
	return draft.NewOpenAI(c.OpenAIKey, model), nil, nil
}

// Publisher returns pub unchanged if non-nil. In dry-run mode it returns a
// publisher that logs the post instead of sending it; otherwise it builds
// the X API client.
func (c Credentials) Publisher(pub session.Publisher, dry bool, scrubber *strings.Replacer, logf logger.Logf) session.Publisher {
	if pub != nil {
		return pub
	}
	if dry {
		return dryPublisher{logf: logf}
	}
	return &twitter.Client{
		ConsumerKey:       c.ConsumerKey,
		ConsumerSecret:    c.ConsumerSecret,
		AccessToken:       c.AccessToken,
		AccessTokenSecret: c.AccessTokenSecret,
		Scrubber:          scrubber,
	}
}

type dryPublisher struct{ logf logger.Logf }

func (p dryPublisher) Publish(_ context.Context, text string) error {
	p.logf("Would post tweet:\n%s", text)
	return nil
}
