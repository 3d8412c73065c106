package handlers

import (
	"context"

	"canvas-ai/application/commands"
	"canvas-ai/application/services"
	"go.uber.org/zap"
)

// ChatHandlers handles chat commands
type ChatHandlers struct {
	router *services.IntentRouter
	logger *zap.Logger
}

// NewChatHandlers creates the chat command handlers
func NewChatHandlers(router *services.IntentRouter, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		router: router,
		logger: logger,
	}
}

// HandleSend executes the send chat message command
func (h *ChatHandlers) HandleSend(ctx context.Context, cmd commands.SendChatMessageCommand) (*services.Turn, error) {
	if cmd.Wait {
		return h.router.Handle(ctx, cmd.Text)
	}
	return h.router.Submit(cmd.Text)
}
