// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/tweetbot/internal/news"
	"go.astrophena.name/tweetbot/internal/testutil"
)

var testBatch = []news.Item{
	{Title: "Go 1.24 released", Source: "The Go Blog", URL: "https://go.dev/blog/go1.24"},
	{Title: "New CPU vulnerability found", Source: "Ars Technica", URL: "https://example.com/cpu"},
	{Title: "Quantum breakthrough", Source: "Nature", URL: "https://example.com/quantum"},
}

type fakeSource struct {
	batches [][]news.Item
	err     error
	calls   int
}

func (s *fakeSource) Fetch(ctx context.Context) ([]news.Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return batch, nil
}

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, item news.Item) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "Big news: " + item.Title + " " + item.URL, nil
}

type fakePublisher struct {
	err    error
	posted []string
}

func (p *fakePublisher) Publish(ctx context.Context, text string) error {
	if p.err != nil {
		return p.err
	}
	p.posted = append(p.posted, text)
	return nil
}

type env struct {
	src     *fakeSource
	gen     *fakeGenerator
	pub     *fakePublisher
	replies []string
	drafts  []Draft
	sess    *Session
}

func newEnv(t *testing.T, mutate ...func(*env)) *env {
	t.Helper()
	e := &env{
		src: &fakeSource{batches: [][]news.Item{testBatch}},
		gen: &fakeGenerator{},
		pub: &fakePublisher{},
	}
	for _, f := range mutate {
		f(e)
	}
	e.sess = New(Config{
		Source:    e.src,
		Generator: e.gen,
		Publisher: e.pub,
		Notify:    func(text string) { e.replies = append(e.replies, text) },
		OnDraft:   func(d Draft) { e.drafts = append(e.drafts, d) },
		Logf:      t.Logf,
	})
	// Deterministic selection: always the first unused article.
	e.sess.pick = func(n int) int { return 0 }
	return e
}

func (e *env) lastReply() string {
	if len(e.replies) == 0 {
		return ""
	}
	return e.replies[len(e.replies)-1]
}

func (e *env) allReplies() string { return strings.Join(e.replies, "\n") }

func TestStartAndHelp(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/start")
	testutil.AssertContains(t, e.lastReply(), "Welcome")

	e.sess.Handle(t.Context(), "/help")
	testutil.AssertContains(t, e.lastReply(), "/tweet")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)
}

func TestTweetProducesDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")

	testutil.AssertEqual(t, e.sess.State(), StateAwaitingApproval)
	testutil.AssertEqual(t, len(e.drafts), 1)
	testutil.AssertEqual(t, e.drafts[0].Item.Title, "Go 1.24 released")
	testutil.AssertContains(t, e.allReplies(), "Selected article 1 of 3")
	testutil.AssertContains(t, e.lastReply(), "Big news: Go 1.24 released")
}

func TestPostPublishesAndFinishes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Handle(t.Context(), "post")

	testutil.AssertEqual(t, e.sess.State(), StateDone)
	testutil.AssertEqual(t, len(e.pub.posted), 1)
	testutil.AssertContains(t, e.pub.posted[0], "go.dev/blog/go1.24")
	testutil.AssertContains(t, e.lastReply(), "posted successfully")

	// Everything after Done gets the terminal notice.
	e.sess.Handle(t.Context(), "/tweet")
	testutil.AssertContains(t, e.lastReply(), "Session is over")
	testutil.AssertEqual(t, e.gen.calls, 1)
}

func TestNewNeverRepeatsArticle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Handle(t.Context(), "new")
	e.sess.Handle(t.Context(), "new")

	testutil.AssertEqual(t, len(e.drafts), 3)
	seen := make(map[string]bool)
	for _, d := range e.drafts {
		if seen[d.Item.Title] {
			t.Fatalf("article %q was drafted twice", d.Item.Title)
		}
		seen[d.Item.Title] = true
	}
	testutil.AssertEqual(t, e.src.calls, 1)
}

func TestExhaustionRefetches(t *testing.T) {
	t.Parallel()
	second := []news.Item{{Title: "Fresh story", Source: "Wired", URL: "https://example.com/fresh"}}
	e := newEnv(t, func(e *env) {
		e.src.batches = [][]news.Item{testBatch, second}
	})

	e.sess.Handle(t.Context(), "/tweet")
	for range len(testBatch) {
		e.sess.Handle(t.Context(), "new")
	}

	testutil.AssertEqual(t, e.src.calls, 2)
	testutil.AssertEqual(t, len(e.drafts), len(testBatch)+1)
	testutil.AssertContains(t, e.allReplies(), "All articles have been used")
	testutil.AssertEqual(t, e.drafts[len(e.drafts)-1].Item.Title, "Fresh story")
}

func TestFetchFailureKeepsSessionUsable(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(e *env) {
		e.src.err = errors.New("newsapi is down")
	})

	e.sess.Handle(t.Context(), "/tweet")

	testutil.AssertContains(t, e.lastReply(), "Failed to fetch")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)

	// Recovered source works on a later attempt.
	e.src.err = nil
	e.sess.Handle(t.Context(), "/tweet")
	testutil.AssertEqual(t, e.sess.State(), StateAwaitingApproval)
}

func TestGenerationFailureDoesNotBurnArticle(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(e *env) {
		e.gen.err = errors.New("model overloaded")
	})

	e.sess.Handle(t.Context(), "/tweet")
	testutil.AssertContains(t, e.lastReply(), "Failed to generate")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)

	// The same article is retried once the generator recovers.
	e.gen.err = nil
	e.sess.Handle(t.Context(), "/tweet")
	testutil.AssertEqual(t, e.drafts[0].Item.Title, "Go 1.24 released")
}

func TestPublishFailureKeepsDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(e *env) {
		e.pub.err = errors.New("duplicate tweet")
	})

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Handle(t.Context(), "post")

	testutil.AssertContains(t, e.lastReply(), "Error posting tweet")
	testutil.AssertEqual(t, e.sess.State(), StateAwaitingApproval)

	// Retrying after the outage posts the same draft.
	e.pub.err = nil
	e.sess.Handle(t.Context(), "post")
	testutil.AssertEqual(t, e.sess.State(), StateDone)
	testutil.AssertEqual(t, len(e.pub.posted), 1)
}

func TestPostWithoutDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "post")
	testutil.AssertContains(t, e.lastReply(), "Nothing to post")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)
}

func TestNewWithoutDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "new")
	testutil.AssertContains(t, e.lastReply(), "Nothing to replace")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)
}

func TestExitCancels(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Handle(t.Context(), "exit")

	testutil.AssertEqual(t, e.sess.State(), StateDone)
	testutil.AssertEqual(t, len(e.pub.posted), 0)
	testutil.AssertContains(t, e.lastReply(), "cancelled")
}

func TestUnknownInput(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "what's up?")
	testutil.AssertContains(t, e.lastReply(), "Use /tweet")

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Handle(t.Context(), "maybe later")
	testutil.AssertContains(t, e.lastReply(), "choose one of the following")
	// The draft survives unrecognized input.
	testutil.AssertEqual(t, e.sess.State(), StateAwaitingApproval)
}

func TestExpireDiscardsDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")
	e.sess.Expire()

	testutil.AssertEqual(t, e.sess.State(), StateDone)
	e.sess.Handle(t.Context(), "post")
	testutil.AssertContains(t, e.lastReply(), "Session is over")
	testutil.AssertEqual(t, len(e.pub.posted), 0)
}

func TestActivityUpdatedOnEveryEvent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	before := e.sess.LastActivity()
	testutil.AssertEqual(t, before.IsZero(), true)

	e.sess.Handle(t.Context(), "gibberish")
	after := e.sess.LastActivity()
	if !after.After(before) {
		t.Fatalf("lastActivity not advanced: %v -> %v", before, after)
	}
}

func TestEmptyBatchAfterRefetch(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(e *env) {
		e.src.batches = nil
	})

	e.sess.Handle(t.Context(), "/tweet")
	testutil.AssertContains(t, e.allReplies(), "No usable articles")
	testutil.AssertEqual(t, e.sess.State(), StateIdle)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		in   string
		want Command
	}{
		"start":            {"/start", CommandStart},
		"help":             {"/help", CommandHelp},
		"tweet":            {"/tweet", CommandTweet},
		"post":             {"post", CommandPost},
		"post uppercase":   {"POST", CommandPost},
		"new padded":       {"  new  ", CommandNew},
		"exit":             {"exit", CommandExit},
		"unknown":          {"hello", CommandUnknown},
		"empty":            {"", CommandUnknown},
		"slash post wrong": {"/post", CommandUnknown},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, ParseCommand(tc.in), tc.want)
		})
	}
}

func TestPostOnce(t *testing.T) {
	t.Parallel()
	src := &fakeSource{batches: [][]news.Item{testBatch}}
	gen := &fakeGenerator{}
	pub := &fakePublisher{}

	d, err := PostOnce(t.Context(), src, gen, pub)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(pub.posted), 1)
	testutil.AssertContains(t, pub.posted[0], d.Item.URL)
}

func TestPostOnceEmptyBatch(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	_, err := PostOnce(t.Context(), src, &fakeGenerator{}, &fakePublisher{})
	if !errors.Is(err, news.ErrNoArticles) {
		t.Fatalf("got %v, want news.ErrNoArticles", err)
	}
}

func TestPostOncePublishFailure(t *testing.T) {
	t.Parallel()
	src := &fakeSource{batches: [][]news.Item{testBatch}}
	pub := &fakePublisher{err: errors.New("rate limited")}
	_, err := PostOnce(t.Context(), src, &fakeGenerator{}, pub)
	testutil.AssertContains(t, err.Error(), "publishing post")
}

func TestNewReplacesDraftBeforePost(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")
	first := e.drafts[0]
	e.sess.Handle(t.Context(), "new")
	e.sess.Handle(t.Context(), "post")

	testutil.AssertEqual(t, len(e.pub.posted), 1)
	testutil.AssertEqual(t, e.pub.posted[0], e.drafts[1].Text)
	testutil.AssertNotContains(t, strings.Join(e.pub.posted, "\n"), first.Item.Title)
}

func TestApproveStaleDraft(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.sess.Handle(t.Context(), "/tweet")

	// Swap the current draft out from under a caller that still holds the
	// old one.
	var stale *Draft
	e.sess.state.WriteAccess(func(st *state) {
		stale = st.draft
		st.draft = &Draft{Item: st.draft.Item, Text: "replacement"}
	})

	var err error
	e.sess.state.WriteAccess(func(st *state) {
		err = e.sess.approve(t.Context(), st, stale)
	})
	if !errors.Is(err, errStaleDraft) {
		t.Fatalf("got %v, want errStaleDraft", err)
	}
	testutil.AssertEqual(t, len(e.pub.posted), 0)
}
