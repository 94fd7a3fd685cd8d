package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/client"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/engine/sink/termsurface"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Talk to a running playground server",
	}
	cmd.PersistentFlags().String("addr", "http://localhost:8000", "Server base URL")
	cmd.PersistentFlags().Int("retries", 3, "Retries for transport errors and 5xx answers")

	cmd.AddCommand(newRemoteRunCmd(), newRemoteSnippetsCmd(), newRemoteHealthCmd())
	return cmd
}

func remoteClient(cmd *cobra.Command) *client.Client {
	cfg := client.DefaultConfig()
	cfg.BaseURL, _ = cmd.Flags().GetString("addr")
	cfg.RetryMax, _ = cmd.Flags().GetInt("retries")
	cfg.Logger = cliLogger(cmd).Component("client")
	return client.New(cfg)
}

func newRemoteRunCmd() *cobra.Command {
	var (
		profile string
		snippet string
		keep    bool
	)
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a snippet in a new server session",
		Long: `Creates a session, runs a file, stdin or catalog snippet in it and prints
the console and render. Files are uploaded so the server sniffs their
encoding. The session is deleted afterwards unless --keep is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := remoteClient(cmd)

			if snippet != "" && profile == "" {
				snippets, err := c.Snippets(ctx, "")
				if err != nil {
					return err
				}
				for _, s := range snippets {
					if s.ID == snippet {
						profile = s.Profile
					}
				}
			}

			info, err := c.CreateSession(ctx, profile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if keep {
				fmt.Fprintln(out, mutedStyle.Render("session "+info.ID))
			} else {
				defer c.DeleteSession(ctx, info.ID)
			}

			var report *runner.Report
			switch {
			case snippet != "":
				report, err = c.Run(ctx, info.ID, types.RunRequest{SnippetID: snippet})
			case len(args) == 1 && args[0] != "-":
				name, data, rerr := readRaw(args, nil)
				if rerr != nil {
					return rerr
				}
				var up *client.UploadReport
				up, err = c.RunFile(ctx, info.ID, filepath.Base(name), data)
				if up != nil {
					report = &up.Report
				}
			default:
				source, rerr := readSource(args, cmd.InOrStdin())
				if rerr != nil {
					return rerr
				}
				report, err = c.Run(ctx, info.ID, types.RunRequest{Source: source})
			}
			if err != nil {
				return err
			}

			surface := termsurface.New(out)
			for _, entry := range report.Entries {
				surface.Append(entry)
			}

			profileInfo, _ := runner.LookupProfile(info.Profile)
			if profileInfo.UI {
				html, err := c.Render(ctx, info.ID)
				if err != nil {
					return err
				}
				if html != "" {
					printRender(out, html)
				}
			}

			if report.State == runner.StateFailed {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Session profile (default script, or the snippet's)")
	cmd.Flags().StringVarP(&snippet, "snippet", "s", "", "Run a server catalog snippet")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the session open")
	return cmd
}

func newRemoteSnippetsCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "List the server's catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snippets, err := remoteClient(cmd).Snippets(cmd.Context(), profile)
			if err != nil {
				return err
			}
			printSnippets(cmd.OutOrStdout(), snippets)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Only list snippets for this profile")
	return cmd
}

func newRemoteHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := remoteClient(cmd).Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", headingStyle.Render("status"), health["status"])
			return nil
		},
	}
}
