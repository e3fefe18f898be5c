// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package draft generates social media post text from news articles using a
// large language model.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.astrophena.name/tweetbot/internal/news"
)

// LLM is a text completion backend.
type LLM interface {
	// Complete returns the model's response to prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// maxBodyLen is the character budget for the post body, leaving room for the
// article URL that is appended separately.
const maxBodyLen = 270

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("draft: model returned empty text")

// Generator produces post text for articles through an LLM.
type Generator struct {
	// LLM is the completion backend. Required.
	LLM LLM
	// Instructions optionally replaces the default prompt instructions. The
	// article details are always included in the prompt.
	Instructions string
}

// Generate drafts post text for item. The returned text ends with the
// article URL; the model never sees the URL and the body is clamped to fit
// the post length limit with it.
func (g *Generator) Generate(ctx context.Context, item news.Item) (string, error) {
	text, err := g.LLM.Complete(ctx, g.buildPrompt(item))
	if err != nil {
		return "", fmt.Errorf("draft: %w", err)
	}
	body := clean(text)
	if body == "" {
		return "", ErrEmptyCompletion
	}
	if item.URL == "" {
		return body, nil
	}
	return body + "\n\n" + item.URL, nil
}

func (g *Generator) buildPrompt(item news.Item) string {
	var sb strings.Builder
	sb.WriteString("Generate a high-quality tweet about this tech news article:\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", item.Title)
	fmt.Fprintf(&sb, "Description: %s\n", item.Description)
	fmt.Fprintf(&sb, "Source: %s\n", item.Source)
	if g.Instructions != "" {
		sb.WriteString("\n" + g.Instructions)
		return sb.String()
	}
	sb.WriteString(`
Requirements:
- Keep it under 270 characters to leave room for a URL
- Add value to the reader
- Make the tweet related to AI if applicable
- Make it informative, engaging and conversation-starting
- Include 1-2 relevant hashtags
- Write in a professional but approachable tone
- DO NOT include 'RT' or any indication this is AI-generated
- DO NOT include the URL (it will be added separately)
- End with a call-to-action like "Read more" or a question to encourage engagement

Just provide the tweet text with no additional commentary.`)
	return sb.String()
}

// clean normalizes model output: surrounding whitespace and wrapping quotes
// are stripped, and the body is truncated at a rune boundary if the model
// ignored the length limit.
func clean(text string) string {
	body := strings.TrimSpace(text)
	if len(body) >= 2 && body[0] == '"' && body[len(body)-1] == '"' {
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	if runes := []rune(body); len(runes) > maxBodyLen {
		body = strings.TrimSpace(string(runes[:maxBodyLen-1])) + "…"
	}
	return body
}
