package commands

import (
	"strings"

	pkgerrors "canvas-ai/pkg/errors"
)

// SendChatMessageCommand submits a user message to the intent router.
// With Wait set the handler blocks until the turn completes.
type SendChatMessageCommand struct {
	Text string `json:"text"`
	Wait bool   `json:"wait"`
}

func (c SendChatMessageCommand) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return pkgerrors.NewValidationError("message cannot be empty")
	}
	return nil
}
