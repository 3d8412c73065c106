package commands

import (
	"strings"

	"canvas-ai/application/snapshot"
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/utils"
)

// GenerateGraphCommand replaces the canvas with a graph generated from a prompt.
// Empty prompts are rejected by the graph store as a generation error.
type GenerateGraphCommand struct {
	Prompt string `json:"prompt"`
}

func (c GenerateGraphCommand) Validate() error {
	return nil
}

// ApplyPatchCommand applies a patch atomically
type ApplyPatchCommand struct {
	Patch snapshot.PatchDoc `json:"patch"`
}

func (c ApplyPatchCommand) Validate() error {
	return nil
}

// UpdateNodeCommand edits one node in place
type UpdateNodeCommand struct {
	NodeID   string                `json:"nodeId" validate:"required,max=128"`
	Title    *string               `json:"title,omitempty"`
	Body     *string               `json:"body,omitempty"`
	Type     *string               `json:"type,omitempty" validate:"omitempty,oneof=topic action note"`
	Position *snapshot.PositionDoc `json:"position,omitempty"`
}

func (c UpdateNodeCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if c.Title == nil && c.Body == nil && c.Type == nil && c.Position == nil {
		return pkgerrors.NewValidationError("at least one field must be provided")
	}
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	return nil
}

// Fields converts the command into a partial update document
func (c UpdateNodeCommand) Fields() snapshot.FieldsDoc {
	return snapshot.FieldsDoc{
		Title:    c.Title,
		Body:     c.Body,
		Type:     c.Type,
		Position: c.Position,
	}
}

// ClearGraphCommand resets the canvas; Confirm must be set
type ClearGraphCommand struct {
	Confirm bool `json:"confirm"`
}

func (c ClearGraphCommand) Validate() error {
	if !c.Confirm {
		return pkgerrors.NewValidationError("clearing the canvas requires confirmation")
	}
	return nil
}

// UndoLastChangeCommand restores the graph before the last patch or edit
type UndoLastChangeCommand struct{}

func (c UndoLastChangeCommand) Validate() error {
	return nil
}
