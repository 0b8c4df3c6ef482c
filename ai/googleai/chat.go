// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package googleai provides a Google Gemini implementation of ai.ChatModel
// using the langchaingo library.
package googleai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/ragkit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const defaultModel = "gemini-2.5-flash"

// ChatModel implements ai.ChatModel using the Google Gemini API.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// NewChatModel creates a new Gemini chat model. The model name defaults to
// gemini-2.5-flash when empty. An API key is required; Gemini has no
// unauthenticated local mode.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(ctx context.Context, apiKey, model string) (ai.ChatModel, error) {
	if apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}
	if model == "" {
		model = defaultModel
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "googleai-chat"),
	}, nil
}

// GenerateText invokes the chat model and returns the first candidate's text.
func (m *ChatModel) GenerateText(ctx context.Context, messages []ai.Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		if msg.Role == ai.RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		content = append(content, llms.MessageContent{
			Role: role,
			Parts: []llms.ContentPart{
				llms.TextPart(msg.Content),
			},
		})
	}

	response, err := m.client.GenerateContent(ctx, content, llms.WithTemperature(0.7))
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Debug("no choices returned from model")
		return "", errors.New("model returned no choices")
	}

	return response.Choices[0].Content, nil
}
