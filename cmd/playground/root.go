package main

import (
	"errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/catalog"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
)

// errRunFailed is returned after a failed run's diagnostic was printed
var errRunFailed = errors.New("snippet failed")

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#17a2b8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "playground",
		Short:         "Run JavaScript, JSX and Redux snippets in a sandbox",
		Long:          `playground runs snippets locally in a goja sandbox or against a playground server.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().Bool("verbose", false, "Log engine activity to stderr")
	root.PersistentFlags().String("catalog", "", "Directory with extra snippet files")

	root.AddCommand(newRunCmd(), newSnippetsCmd(), newRemoteCmd())
	return root
}

// cliLogger logs to stderr so stdout stays the snippet's console
func cliLogger(cmd *cobra.Command) *logging.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return logging.Nop()
	}
	logger, err := logging.New(logging.Config{
		Level:       "debug",
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.Nop()
	}
	return logger
}

// loadCatalog returns the built-in snippets plus any from --catalog
func loadCatalog(cmd *cobra.Command, logger *logging.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.NewDefault(logger.Component("catalog"))
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("catalog"); dir != "" {
		if _, err := cat.LoadDir(dir, catalog.DefaultPattern); err != nil {
			return nil, err
		}
	}
	return cat, nil
}
