package main

import (
	"context"
	"fmt"
	"time"

	"canvas-ai/infrastructure/config"
	"canvas-ai/infrastructure/di"

	"github.com/spf13/cobra"
)

// --- Global Flags ---
var (
	storageBackend string
	dataDir        string
	outputJSON     bool
	timeout        time.Duration

	rootCmd = &cobra.Command{
		Use:           "canvasctl",
		Short:         "Drive the canvas graph editor from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --- Graph ---
	generateCmd = &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Replace the canvas with a graph generated from a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGenerate,
	}
	showCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the current graph",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Reset the canvas to the empty state",
		Args:  cobra.NoArgs,
		RunE:  runClear,
	}
	undoCmd = &cobra.Command{
		Use:   "undo",
		Short: "Restore the graph before the last change",
		Args:  cobra.NoArgs,
		RunE:  runUndo,
	}
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the graph document to a file or stdout",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	editCmd = &cobra.Command{
		Use:   "edit [node-id] [title]",
		Short: "Rename a node",
		Args:  cobra.ExactArgs(2),
		RunE:  runEdit,
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message to the assistant and print its reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	tokenCmd = &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a signed API token using JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

var (
	clearConfirmed bool
	exportPath     string
	serveAddress   string
	tokenEmail     string
	tokenTTL       time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "storage backend: badger, dynamodb or memory")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the badger store")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")

	clearCmd.Flags().BoolVarP(&clearConfirmed, "yes", "y", false, "confirm clearing the canvas")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "file to write; stdout when empty")
	serveCmd.Flags().StringVar(&serveAddress, "addr", "", "listen address, overrides SERVER_ADDRESS")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(generateCmd, showCmd, clearCmd, undoCmd, exportCmd, editCmd, chatCmd, serveCmd, tokenCmd)
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if storageBackend != "" {
		cfg.StorageBackend = storageBackend
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withContainer builds the application, runs fn and tears it down
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *di.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	return fn(ctx, container)
}
