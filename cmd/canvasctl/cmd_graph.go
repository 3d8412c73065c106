package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"canvas-ai/application/commands"
	"canvas-ai/application/queries"
	"canvas-ai/application/services"
	"canvas-ai/infrastructure/di"

	"github.com/spf13/cobra"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		if _, err := c.CommandBus.Send(ctx, commands.GenerateGraphCommand{Prompt: prompt}); err != nil {
			return err
		}
		return showGraph(ctx, c)
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, showGraph)
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearConfirmed {
		return fmt.Errorf("refusing to clear the canvas without --yes")
	}
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		if _, err := c.CommandBus.Send(ctx, commands.ClearGraphCommand{Confirm: true}); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Canvas cleared.")
		return nil
	})
}

func runUndo(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		if _, err := c.CommandBus.Send(ctx, commands.UndoLastChangeCommand{}); err != nil {
			return err
		}
		return showGraph(ctx, c)
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		result, err := c.QueryBus.Ask(ctx, queries.ExportGraphQuery{})
		if err != nil {
			return err
		}
		export, ok := result.(*queries.ExportGraphResult)
		if !ok {
			return fmt.Errorf("unexpected export result %T", result)
		}

		if exportPath == "" {
			_, err = stdout.Write(export.Data)
			return err
		}
		if err := os.WriteFile(exportPath, export.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(stdout, "Exported %d bytes to %s\n", len(export.Data), exportPath)
		return nil
	})
}

// runEdit drives a full begin, draft and commit cycle in one invocation
func runEdit(cmd *cobra.Command, args []string) error {
	nodeID, title := args[0], args[1]
	return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
		if _, err := c.CommandBus.Send(ctx, commands.BeginEditCommand{NodeID: nodeID}); err != nil {
			return err
		}
		if _, err := c.CommandBus.Send(ctx, commands.UpdateDraftCommand{Title: title}); err != nil {
			return err
		}
		result, err := c.CommandBus.Send(ctx, commands.CommitEditCommand{})
		if err != nil {
			return err
		}
		if commit, ok := result.Data.(*services.CommitResult); ok && !commit.Committed {
			fmt.Fprintln(stdout, mutedStyle.Render("Node no longer exists, edit discarded."))
			return nil
		}
		return showGraph(ctx, c)
	})
}

func showGraph(ctx context.Context, c *di.Container) error {
	result, err := c.QueryBus.Ask(ctx, queries.GetGraphQuery{})
	if err != nil {
		return err
	}
	graph, ok := result.(*queries.GetGraphResult)
	if !ok {
		return fmt.Errorf("unexpected graph result %T", result)
	}
	return printGraph(graph)
}
