package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/engine/sink/termsurface"
)

type runOptions struct {
	profile string
	snippet string
	timeout time.Duration
	hints   bool
	json    bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a snippet locally",
		Long: `Runs a source file, stdin, or a catalog snippet in a local sandbox.
Console output is printed as it happens; UI profiles print the sanitized
render afterwards. Timers scheduled by the snippet are drained before exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Profile: script, react or redux (default script)")
	cmd.Flags().StringVarP(&opts.snippet, "snippet", "s", "", "Run a catalog snippet instead of a file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Wall clock limit for synchronous execution (0 disables)")
	cmd.Flags().BoolVar(&opts.hints, "hints", true, "Narrate the run in the console")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the run report as JSON instead of the console")
	return cmd
}

func runLocal(cmd *cobra.Command, args []string, opts *runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cliLogger(cmd)
	defer logger.Sync()

	source, profileName, err := localSource(cmd, args, opts)
	if err != nil {
		return err
	}
	profile, err := runner.LookupProfile(profileName)
	if err != nil {
		return err
	}

	sandboxConfig := sandbox.DefaultConfig()
	sandboxConfig.Timeout = opts.timeout
	pool, err := sandbox.NewPool(sandboxConfig, 1)
	if err != nil {
		return err
	}
	defer pool.Close()

	out := cmd.OutOrStdout()
	var surface sink.Surface
	if !opts.json {
		surface = termsurface.New(out)
	}
	console := sink.New(sink.DefaultConfig(), surface)
	target := render.NewHTMLTarget()

	ctrl, err := runner.New(runner.Options{
		Profile:  profile,
		Sink:     console,
		Target:   target,
		Executor: pool,
		Logger:   logger.Component("runner"),
		Hints:    opts.hints && !opts.json,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	report, err := ctrl.Run(ctx, source)
	if err != nil {
		return err
	}
	if err := report.Wait(ctx); err != nil {
		return err
	}

	if opts.json {
		report.Entries = console.Entries()
		if err := writeReport(out, report, target.HTML()); err != nil {
			return err
		}
	} else if html := target.HTML(); html != "" {
		printRender(out, html)
	}

	if report.State == runner.StateFailed {
		return errRunFailed
	}
	return nil
}

// localSource resolves --snippet or the file argument. A snippet carries
// its own profile; --profile must agree with it.
func localSource(cmd *cobra.Command, args []string, opts *runOptions) (string, string, error) {
	if opts.snippet == "" {
		source, err := readSource(args, cmd.InOrStdin())
		return source, opts.profile, err
	}
	if len(args) > 0 {
		return "", "", fmt.Errorf("--snippet and a file argument are mutually exclusive")
	}

	cat, err := loadCatalog(cmd, cliLogger(cmd))
	if err != nil {
		return "", "", err
	}
	snippet, err := cat.Get(opts.snippet)
	if err != nil {
		return "", "", err
	}
	if opts.profile != "" && opts.profile != snippet.Profile {
		return "", "", fmt.Errorf("snippet %s needs profile %s, not %s", snippet.ID, snippet.Profile, opts.profile)
	}
	return snippet.Source, snippet.Profile, nil
}

func writeReport(w io.Writer, report *runner.Report, html string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*runner.Report
		HTML string `json:"html,omitempty"`
	}{report, html})
}

func printRender(w io.Writer, html string) {
	fmt.Fprintln(w, headingStyle.Render("── render ──"))
	fmt.Fprintln(w, html)
}
