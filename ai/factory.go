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


package ai

import (
	"context"
	"fmt"
)

// Provider names accepted by chat model factories.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ChatModelFactory constructs a ChatModel for a provider name and API key.
// Implementations live in the provider sub-packages; the closed set of
// supported providers is assembled by the caller (see NewChatModelFactory
// in the root package) so that adding a provider means adding one variant,
// not touching the workflow.
type ChatModelFactory func(ctx context.Context, provider, apiKey string) (ChatModel, error)

// ResolveProvider maps an empty or aliased provider name to a canonical one.
// Unknown names are returned wrapped in ErrUnknownProvider.
func ResolveProvider(name string) (string, error) {
	switch name {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderGemini, "googleai", "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
