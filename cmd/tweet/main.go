// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"

	"go.astrophena.name/tweetbot/internal/cli"
	"go.astrophena.name/tweetbot/internal/config"
	"go.astrophena.name/tweetbot/internal/draft"
	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/session"
)

func main() { cli.Main(new(app)) }

type app struct {
	// Flags.
	configPath string
	dry        bool

	creds config.Credentials
	cfg   *config.Config

	// Initialized in Run, or replaced in tests.
	httpc *http.Client
	llm   draft.LLM
	pub   session.Publisher
	src   session.Source
	logf  logger.Logf

	closeLLM func() error
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.configPath, "config", "", "Path to the Starlark configuration `file`.")
	fs.BoolVar(&a.dry, "dry", false, "Enable dry-run mode: draft tweets, but don't post them to X.")
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	a.logf = env.Logf

	if err := a.loadConfig(env); err != nil {
		return err
	}
	if err := a.setup(ctx); err != nil {
		return err
	}
	if a.closeLLM != nil {
		defer a.closeLLM()
	}

	sess := session.New(session.Config{
		Source:    a.src,
		Generator: &draft.Generator{LLM: a.llm, Instructions: a.cfg.Prompt},
		Publisher: a.pub,
		Notify:    func(text string) { fmt.Fprintln(env.Stdout, text) },
		Logf:      a.logf,
	})

	fmt.Fprintln(env.Stdout, "Type /tweet to start, /help for commands.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		s := bufio.NewScanner(env.Stdin)
		for s.Scan() {
			select {
			case lines <- s.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			sess.Handle(ctx, line)
			if sess.State() == session.StateDone {
				return nil
			}
		}
	}
}

func (a *app) loadConfig(env *cli.Env) error {
	if a.creds == (config.Credentials{}) {
		a.creds = config.LoadCredentials(env.Getenv)
	}
	if a.cfg == nil {
		var err error
		a.cfg, err = config.Load(a.configPath, a.logf)
		if err != nil {
			return err
		}
	}
	return a.creds.Validate(a.cfg, a.src, a.llm, a.pub, a.dry)
}

func (a *app) setup(ctx context.Context) error {
	scrubber := a.creds.Scrubber()
	a.src = a.creds.Source(a.src, a.cfg, a.httpc, scrubber, a.logf)
	llm, closeLLM, err := a.creds.LLM(ctx, a.llm, a.cfg.Model)
	if err != nil {
		return err
	}
	a.llm, a.closeLLM = llm, closeLLM
	a.pub = a.creds.Publisher(a.pub, a.dry, scrubber, a.logf)
	return nil
}
