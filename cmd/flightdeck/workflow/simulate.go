// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich/gitlocal"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/session"
	libworkflow "github.com/flightdeck-foundation/flightdeck/lib/workflow"
	"github.com/flightdeck-foundation/flightdeck/lib/workflowdef"
)

// simulateCommand returns the "simulate" subcommand for inspecting a
// preset's derived job state.
func simulateCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
		EnvironmentFile string `flag:"environment-file" desc:"environment snapshot JSON for variable resolution"`
		Clones          string `flag:"clones" desc:"local clone directory for branch and tag enrichment"`
		StageExec       bool   `flag:"stage-exec" desc:"restrict the run to exec-marked stages"`
	}

	return &cli.Command{
		Name:    "simulate",
		Summary: "Inspect every job's derived state without launching",
		Description: `Build a full editing session over a preset and print what the
workbench would show: each job's lifecycle state, activity, and any
validation findings blocking a launch.

With --clones pointing at a directory of local git clones, build jobs
are enriched with branch and tag lists the same way the workbench
does it; without it, enrichment is skipped and jobs that depend on it
report their data as not yet available.`,
		Usage: "flightdeck workflow simulate [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Simulate against a staging snapshot",
				Command:     "flightdeck workflow simulate release-train.jsonc --environment-file staging-eu.json",
			},
			{
				Description: "Simulate with local clone enrichment",
				Command:     "flightdeck workflow simulate release-train.jsonc --clones ~/.cache/flightdeck/clones",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("simulate", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: flightdeck workflow simulate [flags] <file>")
			}

			content, err := workflowdef.ReadFile(args[0])
			if err != nil {
				return err
			}
			if issues := workflowdef.Validate(content); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "  - %s\n", issue)
				}
				return fmt.Errorf("%s: %d validation issue(s) found", args[0], len(issues))
			}

			env, err := loadEnvironmentFile(params.EnvironmentFile)
			if err != nil {
				return err
			}

			var sources enrich.Sources
			if params.Clones != "" {
				sources.CodeHost = gitlocal.New(params.Clones)
			}

			logger := cli.NewCommandLogger().With("command", "workflow/simulate")
			sess, err := session.New(session.Config{
				Document:      content,
				Environment:   env,
				Sources:       sources,
				StageExecMode: params.StageExec,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			if sources.CodeHost != nil {
				ctx := context.Background()
				for _, job := range content.Jobs() {
					if job.Type != schema.JobTypeBuild {
						continue
					}
					if err := sess.EnrichJob(ctx, job.Name); err != nil {
						return fmt.Errorf("enriching %s: %w", job.Name, err)
					}
				}
			}

			findings, err := sess.Validate()
			if err != nil {
				return err
			}
			views, err := sess.Views()
			if err != nil {
				return err
			}

			notices := sess.Notices()
			if notices == nil {
				notices = []string{}
			}
			if done, err := params.EmitJSON(struct {
				Views    []session.JobView `json:"views"`
				Findings []string          `json:"findings"`
				Notices  []string          `json:"notices"`
			}{views, findingStrings(findings), notices}); done {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "JOB\tSTAGE\tTYPE\tSTATE\tACTIVE\n")
			for _, view := range views {
				active := ""
				if view.Active {
					active = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					view.Name, view.Stage, view.Type, view.State, active)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, notice := range sess.Notices() {
				fmt.Fprintf(os.Stderr, "notice: %s\n", notice)
			}
			if len(findings) > 0 {
				fmt.Fprintf(os.Stderr, "\n%d finding(s) block a launch:\n", len(findings))
				for _, finding := range findings {
					fmt.Fprintf(os.Stderr, "  - %s\n", finding)
				}
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func findingStrings(findings []libworkflow.Finding) []string {
	messages := make([]string, 0, len(findings))
	for _, finding := range findings {
		messages = append(messages, finding.String())
	}
	return messages
}
