package ai

import "errors"

var (
	// ErrUnknownProvider is returned when a chat model is requested for a
	// provider name outside the supported set.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrMissingAPIKey is returned when a provider requires a key and none
	// was supplied.
	ErrMissingAPIKey = errors.New("api key required")
)
