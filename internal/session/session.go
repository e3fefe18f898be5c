// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package session implements the conversation state machine of the tweet
// bot: fetching a batch of articles, selecting one that wasn't shown yet,
// generating a draft post and walking it through human approval.
//
// A Session is single-tenant: exactly one exists per running process, and
// all events are handled one at a time under a single lock. At most one
// adapter call is in flight at any moment.
package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.astrophena.name/tweetbot/internal/logger"
	"go.astrophena.name/tweetbot/internal/news"
	"go.astrophena.name/tweetbot/internal/util/set"
	"go.astrophena.name/tweetbot/internal/util/syncx"
)

// Source fetches a fresh batch of articles.
type Source interface {
	Fetch(ctx context.Context) ([]news.Item, error)
}

// Generator turns one article into proposed post text.
type Generator interface {
	Generate(ctx context.Context, item news.Item) (string, error)
}

// Publisher publishes finished text to a social network.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// State is a durable state of a Session. Fetching, drafting and posting are
// transient: they happen within the handling of a single event and collapse
// into one of these.
type State int

const (
	// StateIdle means no draft is pending.
	StateIdle State = iota
	// StateAwaitingApproval means a draft exists and user input is expected.
	StateAwaitingApproval
	// StateDone is terminal: the draft was posted, or the session was
	// cancelled or expired.
	StateDone
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingApproval:
		return "awaiting approval"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Draft is generated post text paired with its source article, pending
// approval.
type Draft struct {
	Item      news.Item `json:"article"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Config configures a Session.
type Config struct {
	Source    Source
	Generator Generator
	Publisher Publisher

	// Notify delivers a reply to the user. It is best-effort: the session
	// never checks whether delivery succeeded.
	Notify func(text string)

	// OnDraft, if set, is called with every newly accepted draft. Used to
	// externalize the draft as a debugging artifact.
	OnDraft func(Draft)

	// Logf specifies a logger to use. If nil, logging is disabled.
	Logf logger.Logf

	// Now acts as time.Now, but can be mocked for testing.
	Now func() time.Time
}

// New returns a new idle Session.
func New(cfg Config) *Session {
	s := &Session{
		src:     cfg.Source,
		gen:     cfg.Generator,
		pub:     cfg.Publisher,
		notify:  cfg.Notify,
		onDraft: cfg.OnDraft,
		logf:    cfg.Logf,
		now:     cfg.Now,
	}
	if s.notify == nil {
		s.notify = func(string) {}
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.pick = func(n int) int { return rand.IntN(n) }
	s.state = syncx.Protect(&state{
		phase: StateIdle,
		used:  set.New[int](0),
	})
	return s
}

// Session is the single stateful conversation tracking batch, selection
// history and the current draft.
type Session struct {
	src     Source
	gen     Generator
	pub     Publisher
	notify  func(string)
	onDraft func(Draft)
	logf    logger.Logf
	now     func() time.Time
	pick    func(n int) int // uniform choice in [0, n), mocked in tests

	// state is the single serialization point: every event, including the
	// adapter calls it triggers, runs under its write lock.
	state *syncx.Protected[*state]
}

type state struct {
	phase        State
	batch        []news.Item
	used         set.Set[int]
	draft        *Draft
	lastActivity time.Time
}

// State reports the current durable state.
func (s *Session) State() State {
	var phase State
	s.state.ReadAccess(func(st *state) { phase = st.phase })
	return phase
}

// LastActivity returns the time of the last handled event.
func (s *Session) LastActivity() time.Time {
	var t time.Time
	s.state.ReadAccess(func(st *state) { t = st.lastActivity })
	return t
}

// Handle processes one inbound user input, advancing the state machine and
// delivering replies through Notify. Events are serialized: a concurrent
// Handle or Expire blocks until the current one finishes.
//
// Adapter failures never escape as errors; they are reported to the user and
// the session returns to the nearest stable state.
func (s *Session) Handle(ctx context.Context, input string) {
	cmd := ParseCommand(input)
	s.state.WriteAccess(func(st *state) {
		// Any inbound activity, even one that fails business logic, extends
		// the idle deadline.
		st.lastActivity = s.now()

		if st.phase == StateDone {
			s.notify("Session is over. Restart the bot to tweet again.")
			return
		}

		switch cmd {
		case CommandStart:
			s.notify("👋 Welcome! Use /tweet to find and post tech news tweets, /help for details.")
		case CommandHelp:
			s.notify(usageHint)
		case CommandTweet:
			s.makeDraft(ctx, st)
		case CommandNew:
			if st.draft == nil {
				s.notify("Nothing to replace. Use /tweet to generate a draft first.")
				return
			}
			st.draft = nil
			st.phase = StateIdle
			s.notify("🔍 Looking for a new article...")
			s.makeDraft(ctx, st)
		case CommandPost:
			s.post(ctx, st)
		case CommandExit:
			st.draft = nil
			st.phase = StateDone
			s.notify("👋 Tweet generation cancelled.")
		default:
			if st.draft != nil {
				s.notify(approvalHint)
				return
			}
			s.notify("Use /tweet to start generating tweets first.")
		}
	})
}

// Expire marks the session done after an idle timeout. Any pending draft is
// discarded; subsequent events are not processed.
func (s *Session) Expire() {
	s.state.WriteAccess(func(st *state) {
		st.draft = nil
		st.phase = StateDone
	})
}

const usageHint = `Commands:
/tweet - Start the tweet generation process
/help - Show this help message

When a draft is shown, reply with:
- 'post' to publish it
- 'new' to draft a different article
- 'exit' to cancel`

const approvalHint = `Please choose one of the following options:
- 'post' to publish the draft
- 'new' to draft a different article
- 'exit' to cancel`

// makeDraft walks one article from selection to a pending draft: it picks an
// unused article (fetching a fresh batch when the current one is absent or
// exhausted), generates post text for it and presents the result.
//
// The article index is recorded as used only after generation succeeded, so
// a failed generation doesn't burn the article.
func (s *Session) makeDraft(ctx context.Context, st *state) {
	if len(st.batch) == 0 {
		s.notify("🔍 Looking for tech news articles...")
		if !s.refreshBatch(ctx, st) {
			s.notify("❌ Failed to fetch tech news articles. Please try again later.")
			return
		}
	}

	idx, ok := s.pickUnused(st)
	if !ok {
		s.notify("🔄 All articles have been used. Fetching new articles...")
		if !s.refreshBatch(ctx, st) {
			s.notify("❌ Failed to fetch new articles. Please try again later.")
			return
		}
		idx, ok = s.pickUnused(st)
		if !ok {
			s.notify("❌ No usable articles right now. Please try again later.")
			return
		}
	}

	item := st.batch[idx]
	s.notify(formatItem(idx, len(st.batch), item))
	s.notify("⏳ Generating tweet text...")

	text, err := s.gen.Generate(ctx, item)
	if err != nil {
		s.logf("Draft generation failed: %v", err)
		s.notify("❌ Failed to generate a tweet. Send 'new' to try another article or 'exit' to quit.")
		return
	}

	st.used.Add(idx)
	draft := &Draft{Item: item, Text: text, CreatedAt: s.now()}
	st.draft = draft
	st.phase = StateAwaitingApproval

	if s.onDraft != nil {
		s.onDraft(*draft)
	}

	s.notify(fmt.Sprintf("✏️ Generated tweet:\n\n%s\n\n%s", text, approvalHint))
}

// refreshBatch replaces the batch wholesale and resets the selection
// history. It reports whether a usable batch is now present.
func (s *Session) refreshBatch(ctx context.Context, st *state) bool {
	batch, err := s.src.Fetch(ctx)
	if err != nil {
		s.logf("Fetching articles failed: %v", err)
		return false
	}
	st.batch = batch
	st.used = set.New[int](len(batch))
	return true
}

// pickUnused picks uniformly at random among the articles not presented yet
// in this batch. ok is false when the batch is exhausted.
func (s *Session) pickUnused(st *state) (idx int, ok bool) {
	var remaining []int
	for i := range st.batch {
		if !st.used.Has(i) {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 0 {
		return 0, false
	}
	return remaining[s.pick(len(remaining))], true
}

func (s *Session) post(ctx context.Context, st *state) {
	if st.draft == nil {
		s.notify("Nothing to post. Use /tweet to generate a draft first.")
		return
	}
	s.notify("🚀 Posting tweet...")
	if err := s.approve(ctx, st, st.draft); err != nil {
		s.logf("Posting failed: %v", err)
		s.notify(fmt.Sprintf("❌ Error posting tweet: %v\nThe draft is kept, you can retry with 'post'.", err))
		return
	}
	s.notify("✅ Tweet posted successfully! Shutting down.")
}

// approve publishes d if it is still the current draft. A draft that was
// replaced or discarded since it was captured is rejected, not published.
func (s *Session) approve(ctx context.Context, st *state, d *Draft) error {
	if st.draft != d {
		return errStaleDraft
	}
	if err := s.pub.Publish(ctx, d.Text); err != nil {
		return err
	}
	st.draft = nil
	st.phase = StateDone
	return nil
}

var errStaleDraft = fmt.Errorf("draft is no longer current")

func formatItem(idx, total int, item news.Item) string {
	return fmt.Sprintf("📰 Selected article %d of %d:\n\nTitle: %s\nSource: %s\nDescription: %s\nURL: %s",
		idx+1, total, item.Title, item.Source, item.Description, item.URL)
}
