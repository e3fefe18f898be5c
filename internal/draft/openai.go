// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package draft

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the OpenAI model used unless overridden.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAI is an LLM backed by the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI returns an OpenAI LLM authenticated with apiKey. If model is
// empty, DefaultOpenAIModel is used. Extra request options, such as
// option.WithBaseURL for compatible providers, can be passed in opts.
func NewOpenAI(apiKey, model string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	m := openai.ChatModel(model)
	if model == "" {
		m = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(opts...), model: m}
}

// Complete implements the LLM interface.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
