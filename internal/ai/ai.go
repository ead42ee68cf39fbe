// Package ai turns captured message text into a tagged title using an
// external completion endpoint. The transformer never fails: every error in
// the AI path degrades to a deterministic fallback string so message
// capture can always proceed.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoChoices indicates the completion endpoint answered successfully but
// returned no completion choices.
var ErrNoChoices = errors.New("completion returned no choices")

// StatusError reports a non-2xx HTTP response from the completion endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.Code, e.Body)
}

// Completer produces a single chat completion for a rendered prompt.
// Implementations make exactly one attempt per call; retry policy is the
// caller's concern.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
