package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func newSnippetsCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "snippets [id]",
		Short: "List catalog snippets or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd, cliLogger(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				snippet, err := cat.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(out, snippet.Source)
				return nil
			}

			if profile != "" {
				if _, err := runner.LookupProfile(profile); err != nil {
					return err
				}
			}
			printSnippets(out, cat.List(profile))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Only list snippets for this profile")
	return cmd
}

// printSnippets writes an aligned id/profile/title table
func printSnippets(w io.Writer, snippets []types.Snippet) {
	if len(snippets) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no snippets"))
		return
	}

	headers := []string{"ID", "PROFILE", "TITLE"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, s := range snippets {
		for i, cell := range []string{s.ID, s.Profile, s.Title} {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	row := func(cells ...string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(w, headingStyle.Render(row(headers...)))
	for _, s := range snippets {
		fmt.Fprintln(w, row(s.ID, s.Profile, s.Title))
	}
}
