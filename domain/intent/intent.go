package intent

import (
	"fmt"
	"strings"

	"canvas-ai/domain/core/aggregates"
	pkgerrors "canvas-ai/pkg/errors"
)

// Kind is the classification of a user message
type Kind string

const (
	KindChat   Kind = "chat"
	KindRefine Kind = "refine"
)

// Response is what a connector returns for one utterance.
// Chat carries only ReplyText; Refine carries a Patch and the confirmation in ReplyText.
type Response struct {
	Intent    Kind
	ReplyText string
	Patch     *aggregates.GraphPatch
}

// Chat builds a conversational response
func Chat(reply string) *Response {
	return &Response{Intent: KindChat, ReplyText: reply}
}

// Refine builds a graph-modifying response
func Refine(patch *aggregates.GraphPatch, confirmation string) *Response {
	return &Response{Intent: KindRefine, ReplyText: confirmation, Patch: patch}
}

// IsRefine reports whether the response modifies the graph
func (r *Response) IsRefine() bool {
	return r.Intent == KindRefine
}

// Validate checks that the response is internally consistent
func (r *Response) Validate() error {
	if r == nil {
		return pkgerrors.NewValidationError("connector returned no response")
	}
	switch r.Intent {
	case KindChat:
		if strings.TrimSpace(r.ReplyText) == "" {
			return pkgerrors.NewValidationError("chat response has no reply text")
		}
	case KindRefine:
		if r.Patch == nil {
			return pkgerrors.NewValidationError("refine response has no patch")
		}
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown intent %q", r.Intent))
	}
	return nil
}
