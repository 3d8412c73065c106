package commands

import (
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/utils"
)

// BeginEditCommand opens the title editor on a node
type BeginEditCommand struct {
	NodeID string `json:"nodeId" validate:"required,max=128"`
}

func (c BeginEditCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

// UpdateDraftCommand replaces the draft title of the open edit
type UpdateDraftCommand struct {
	Title string `json:"title"`
}

func (c UpdateDraftCommand) Validate() error {
	return nil
}

// CommitEditCommand writes the draft title to the graph
type CommitEditCommand struct{}

func (c CommitEditCommand) Validate() error {
	return nil
}

// CancelEditCommand discards the open edit
type CancelEditCommand struct{}

func (c CancelEditCommand) Validate() error {
	return nil
}
