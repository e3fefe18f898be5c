// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.astrophena.name/tweetbot/internal/api/telegram"
	"go.astrophena.name/tweetbot/internal/atomicio"
	"go.astrophena.name/tweetbot/internal/cli"
	"go.astrophena.name/tweetbot/internal/config"
	"go.astrophena.name/tweetbot/internal/draft"
	"go.astrophena.name/tweetbot/internal/idle"
	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/session"
)

// draftFile is the name of the draft artifact written to the state
// directory every time a new draft is generated.
const draftFile = "tweet_draft.json"

func main() { cli.Main(new(bot)) }

type bot struct {
	// Flags.
	configPath string
	dry        bool

	// Configuration from the environment.
	tgToken  string
	chatID   int64
	stateDir string

	creds config.Credentials
	cfg   *config.Config

	// idleTick overrides the tracker's polling interval in tests.
	idleTick time.Duration

	// Initialized in Run, or replaced in tests.
	httpc   *http.Client
	llm     draft.LLM
	pub     session.Publisher
	src     session.Source
	tg      *telegram.Client
	sess    *session.Session
	tracker *idle.Tracker
	logf    logger.Logf

	closeLLM func() error
}

func (b *bot) Flags(fs *flag.FlagSet) {
	fs.StringVar(&b.configPath, "config", "", "Path to the Starlark configuration `file`.")
	fs.BoolVar(&b.dry, "dry", false, "Enable dry-run mode: draft tweets, but don't post them to X.")
}

func (b *bot) Run(ctx context.Context, env *cli.Env) error {
	b.logf = env.Logf

	if err := b.loadConfig(env); err != nil {
		return err
	}
	if err := b.setup(ctx); err != nil {
		return err
	}
	if b.closeLLM != nil {
		defer b.closeLLM()
	}
	return b.loop(ctx)
}

func (b *bot) loadConfig(env *cli.Env) error {
	b.tgToken = cmp.Or(b.tgToken, env.Getenv("TELEGRAM_TOKEN"))
	if b.tgToken == "" {
		return fmt.Errorf("%w: TELEGRAM_TOKEN environment variable is not set", cli.ErrInvalidArgs)
	}
	if b.chatID == 0 {
		chatID := env.Getenv("CHAT_ID")
		if chatID == "" {
			return fmt.Errorf("%w: CHAT_ID environment variable is not set", cli.ErrInvalidArgs)
		}
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid CHAT_ID %q", cli.ErrInvalidArgs, chatID)
		}
		b.chatID = id
	}

	if b.creds == (config.Credentials{}) {
		b.creds = config.LoadCredentials(env.Getenv)
	}

	b.stateDir = cmp.Or(b.stateDir, env.Getenv("STATE_DIRECTORY"))
	if b.stateDir == "" {
		xdgStateHome := env.Getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		b.stateDir = filepath.Join(xdgStateHome, "tweetbot")
	}
	if err := os.MkdirAll(b.stateDir, 0o700); err != nil {
		return err
	}

	if b.cfg == nil {
		var err error
		b.cfg, err = config.Load(b.configPath, b.logf)
		if err != nil {
			return err
		}
	}

	return b.creds.Validate(b.cfg, b.src, b.llm, b.pub, b.dry)
}

func (b *bot) setup(ctx context.Context) error {
	scrubber := b.creds.Scrubber(b.tgToken)

	b.tg = &telegram.Client{
		Token:      b.tgToken,
		HTTPClient: b.httpc,
		Scrubber:   scrubber,
		Logf:       b.logf,
	}

	b.src = b.creds.Source(b.src, b.cfg, b.httpc, scrubber, b.logf)
	llm, closeLLM, err := b.creds.LLM(ctx, b.llm, b.cfg.Model)
	if err != nil {
		return err
	}
	b.llm, b.closeLLM = llm, closeLLM
	b.pub = b.creds.Publisher(b.pub, b.dry, scrubber, b.logf)

	return nil
}

func (b *bot) send(ctx context.Context, text string) {
	if err := b.tg.SendMessage(ctx, b.chatID, text); err != nil {
		b.logf("Sending message failed: %v", err)
	}
}

func (b *bot) saveDraft(d session.Draft) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		b.logf("Marshaling draft failed: %v", err)
		return
	}
	if err := atomicio.WriteFile(filepath.Join(b.stateDir, draftFile), data, 0o644); err != nil {
		b.logf("Saving draft failed: %v", err)
	}
}

func (b *bot) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.sess = session.New(session.Config{
		Source:    b.src,
		Generator: &draft.Generator{LLM: b.llm, Instructions: b.cfg.Prompt},
		Publisher: b.pub,
		Notify:    func(text string) { b.send(ctx, text) },
		OnDraft:   b.saveDraft,
		Logf:      b.logf,
	})

	timeout := cmp.Or(b.cfg.Timeout, idle.DefaultTimeout)
	b.tracker = idle.NewTracker(timeout, func() {
		b.logf("No activity for %v, shutting down.", timeout)
		b.send(ctx, fmt.Sprintf("💤 No activity for %v, shutting down.", timeout))
		b.sess.Expire()
		cancel()
	})
	b.tracker.Tick = b.idleTick
	b.tracker.Run(ctx)

	b.send(ctx, fmt.Sprintf("🤖 Bot started! Send /tweet to begin or /help for commands. I'll shut down after %v of inactivity.", timeout))
	defer b.shutdownNotice(ctx)

	var offset int64
	for {
		updates, err := b.tg.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logf("Getting updates failed: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, u := range updates {
			if u.ID >= offset {
				offset = u.ID + 1
			}
			if u.Message == nil || u.Message.Chat.ID != b.chatID || u.Message.Text == "" {
				continue
			}
			b.tracker.Touch()
			b.sess.Handle(ctx, u.Message.Text)
			if b.sess.State() == session.StateDone {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// shutdownNotice tells the chat the bot is going away. The loop context is
// likely canceled by now, so the message is sent with a fresh one.
func (b *bot) shutdownNotice(ctx context.Context) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	b.send(sctx, "👋 Bot shutting down.")
}
