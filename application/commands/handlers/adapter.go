package handlers

import (
	"context"
	"fmt"

	"canvas-ai/application/commands/bus"
)

// Adapt exposes a typed handler method on the command bus
func Adapt[C bus.Command, R any](handle func(context.Context, C) (R, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("unexpected command type %T", cmd)
		}
		return handle(ctx, typed)
	})
}
