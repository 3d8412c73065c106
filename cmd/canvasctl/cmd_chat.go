package main

import (
	"context"
	"fmt"
	"strings"

	"canvas-ai/application/commands"
	"canvas-ai/application/services"
	"canvas-ai/infrastructure/di"

	"github.com/spf13/cobra"
)

// runChat sends one message, waits for the turn and prints the messages it produced to the log
func runChat(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		result, err := c.CommandBus.Send(ctx, commands.SendChatMessageCommand{Text: text, Wait: true})
		if err != nil {
			return err
		}
		turn, ok := result.Data.(*services.Turn)
		if !ok {
			return fmt.Errorf("unexpected chat result %T", result.Data)
		}

		if err := printMessages(c.Session.ForTurn(turn.ID)); err != nil {
			return err
		}

		if turn.Outcome() == services.TurnRepliedAndPatched && !outputJSON {
			fmt.Fprintln(stdout)
			return showGraph(ctx, c)
		}
		return nil
	})
}
