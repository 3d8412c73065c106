package handlers

import (
	"canvas-ai/application/commands"
	"canvas-ai/application/commands/bus"
)

// RegisterAll wires every command handler onto the bus
func RegisterAll(b *bus.CommandBus, graph *GraphHandlers, chat *ChatHandlers, edit *EditHandlers) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.GenerateGraphCommand{}, Adapt(graph.HandleGenerate)},
		{commands.ApplyPatchCommand{}, Adapt(graph.HandleApplyPatch)},
		{commands.UpdateNodeCommand{}, Adapt(graph.HandleUpdateNode)},
		{commands.ClearGraphCommand{}, Adapt(graph.HandleClear)},
		{commands.UndoLastChangeCommand{}, Adapt(graph.HandleUndo)},
		{commands.SendChatMessageCommand{}, Adapt(chat.HandleSend)},
		{commands.BeginEditCommand{}, Adapt(edit.HandleBegin)},
		{commands.UpdateDraftCommand{}, Adapt(edit.HandleUpdateDraft)},
		{commands.CommitEditCommand{}, Adapt(edit.HandleCommit)},
		{commands.CancelEditCommand{}, Adapt(edit.HandleCancel)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
