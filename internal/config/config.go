// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config parses the bot configuration, written in Starlark.
//
// The configuration file defines where news comes from and how the bot
// behaves:
//
//	sources = [
//	    source(url = "https://example.com/feed.xml", title = "Example"),
//	]
//
//	category = "technology"
//	page_size = 15
//	model = "gemini-1.5-pro"
//	prompt = "Write a short, witty tweet about this article."
//	timeout = "15m"
//
// All globals are optional. When sources is empty, articles come from the
// NewsAPI top headlines endpoint instead of RSS feeds.
//
// API credentials never live in the config file. They come from environment
// variables, see [LoadCredentials].
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.astrophena.name/tweetbot/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Source is a single RSS feed to read articles from.
type Source struct {
	URL   string
	Title string
}

func (s *Source) String() string        { return fmt.Sprintf("<source url=%q>", s.URL) }
func (s *Source) Type() string          { return "source" }
func (s *Source) Freeze()               {} // immutable
func (s *Source) Truth() starlark.Bool  { return starlark.Bool(s.URL != "") }
func (s *Source) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", s.Type()) }

// Config is the parsed bot configuration.
type Config struct {
	// Sources are RSS feeds to read articles from. Empty means NewsAPI.
	Sources []*Source
	// Category is the NewsAPI category to fetch headlines for.
	Category string
	// PageSize is how many articles to fetch per batch.
	PageSize int
	// Model overrides the LLM model name.
	Model string
	// Prompt overrides the instruction part of the generation prompt. The
	// article details are always included.
	Prompt string
	// Timeout is the inactivity timeout after which the bot shuts down.
	// Zero means the default.
	Timeout time.Duration
}

// Load reads and parses the configuration file at path. An empty path
// yields an empty configuration.
func Load(path string, logf logger.Logf) (*Config, error) {
	if path == "" {
		return new(Config), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(b), logf)
}

// Parse parses a config.star file. Print statements in the config are
// forwarded to logf.
func Parse(config string, logf logger.Logf) (*Config, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Print: func(_ *starlark.Thread, msg string) { logf("%s", msg) },
		},
		"config.star",
		config,
		starlark.StringDict{
			"source": starlark.NewBuiltin("source", sourceBuiltin),
		},
	)
	if err != nil {
		return nil, err
	}

	c := new(Config)

	if sourcesList, ok := globals["sources"].(*starlark.List); ok {
		for elem := range sourcesList.Elements() {
			src, ok := elem.(*Source)
			if !ok {
				continue
			}
			if _, err := url.Parse(src.URL); err != nil {
				return nil, fmt.Errorf("invalid URL %q of source %q", src.URL, src.Title)
			}
			c.Sources = append(c.Sources, src)
		}
	}

	if err := unpackString(globals, "category", &c.Category); err != nil {
		return nil, err
	}
	if err := unpackString(globals, "model", &c.Model); err != nil {
		return nil, err
	}
	if err := unpackString(globals, "prompt", &c.Prompt); err != nil {
		return nil, err
	}

	if v, ok := globals["page_size"]; ok {
		size, err := starlark.AsInt32(v)
		if err != nil {
			return nil, fmt.Errorf("page_size: %v", err)
		}
		if size <= 0 {
			return nil, errors.New("page_size must be positive")
		}
		c.PageSize = size
	}

	var timeout string
	if err := unpackString(globals, "timeout", &timeout); err != nil {
		return nil, err
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %v", err)
		}
		if d <= 0 {
			return nil, errors.New("timeout must be positive")
		}
		c.Timeout = d
	}

	return c, nil
}

func unpackString(globals starlark.StringDict, name string, dst *string) error {
	v, ok := globals[name]
	if !ok {
		return nil
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	*dst = s
	return nil
}

func sourceBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 {
		return nil, fmt.Errorf("unexpected positional arguments")
	}
	s := new(Source)
	if err := starlark.UnpackArgs("source", args, kwargs,
		"url", &s.URL,
		"title?", &s.Title,
	); err != nil {
		return nil, err
	}
	return s, nil
}
