// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.astrophena.name/tweetbot/internal/cli"
	"go.astrophena.name/tweetbot/internal/config"
	"go.astrophena.name/tweetbot/internal/draft"
	"go.astrophena.name/tweetbot/internal/idle"
	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/session"
	"go.astrophena.name/tweetbot/internal/web"
)

func main() { cli.Main(new(server)) }

type server struct {
	// Flags.
	addr        string
	configPath  string
	dry         bool
	idleTimeout time.Duration

	creds config.Credentials
	cfg   *config.Config

	// Initialized in Run, or replaced in tests.
	httpc *http.Client
	llm   draft.LLM
	gen   *draft.Generator
	pub   session.Publisher
	src   session.Source
	logf  logger.Logf

	running  atomic.Bool
	closeLLM func() error
}

func (s *server) Flags(fs *flag.FlagSet) {
	fs.StringVar(&s.addr, "addr", "localhost:3000", "Listen on `host:port`.")
	fs.StringVar(&s.configPath, "config", "", "Path to the Starlark configuration `file`.")
	fs.BoolVar(&s.dry, "dry", false, "Enable dry-run mode: draft tweets, but don't post them to X.")
	fs.DurationVar(&s.idleTimeout, "idle-timeout", 0, "Shut down after this `duration` without requests. Zero disables.")
}

func (s *server) Run(ctx context.Context, env *cli.Env) error {
	s.logf = env.Logf

	if err := s.loadConfig(env); err != nil {
		return err
	}
	if err := s.setup(ctx); err != nil {
		return err
	}
	if s.closeLLM != nil {
		defer s.closeLLM()
	}
	if s.gen == nil {
		s.gen = &draft.Generator{LLM: s.llm, Instructions: s.cfg.Prompt}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /trigger", s.handleTrigger)

	var middleware func(http.Handler) http.Handler
	if tracker := idle.NewTracker(s.idleTimeout, func() {
		s.logf("No requests for %v, shutting down.", s.idleTimeout)
		cancel()
	}); tracker != nil {
		tracker.Run(ctx)
		middleware = tracker.Handler
	}

	return web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Addr:       s.addr,
		Mux:        mux,
		Logf:       s.logf,
		Middleware: middleware,
	})
}

func (s *server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if !s.running.CompareAndSwap(false, true) {
		web.RespondJSONError(s.logf, w, fmt.Errorf("%w: another run is in progress", web.StatusErr(http.StatusConflict)))
		return
	}
	defer s.running.Store(false)

	d, err := session.PostOnce(r.Context(), s.src, s.gen, s.pub)
	if err != nil {
		web.RespondJSONError(s.logf, w, err)
		return
	}
	s.logf("Posted tweet about %q.", d.Item.Title)
	web.RespondJSON(w, d)
}

func (s *server) loadConfig(env *cli.Env) error {
	if s.creds == (config.Credentials{}) {
		s.creds = config.LoadCredentials(env.Getenv)
	}
	if s.cfg == nil {
		var err error
		s.cfg, err = config.Load(s.configPath, s.logf)
		if err != nil {
			return err
		}
	}
	if s.idleTimeout == 0 {
		s.idleTimeout = s.cfg.Timeout
	}
	return s.creds.Validate(s.cfg, s.src, s.llm, s.pub, s.dry)
}

func (s *server) setup(ctx context.Context) error {
	scrubber := s.creds.Scrubber()
	s.src = s.creds.Source(s.src, s.cfg, s.httpc, scrubber, s.logf)
	llm, closeLLM, err := s.creds.LLM(ctx, s.llm, s.cfg.Model)
	if err != nil {
		return err
	}
	s.llm, s.closeLLM = llm, closeLLM
	s.pub = s.creds.Publisher(s.pub, s.dry, scrubber, s.logf)
	return nil
}
