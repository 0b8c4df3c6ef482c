package outbox

import "errors"

var (
	// ErrSinkRequired is returned when a sink is not provided.
	ErrSinkRequired = errors.New("sink required")
)
