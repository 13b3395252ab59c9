// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/workflowdef"
)

// showCommand returns the "show" subcommand for displaying a preset.
func showCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
	}

	return &cli.Command{
		Name:    "show",
		Summary: "Show a workflow preset's stages and jobs",
		Description: `Display a workflow preset: its name, project, and the jobs of each
stage with their types and sources. Pass --json for the full parsed
content, including option lists and preset selections.`,
		Usage: "flightdeck workflow show [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Show a preset's structure",
				Command:     "flightdeck workflow show release-train.jsonc",
			},
			{
				Description: "Dump the full parsed content",
				Command:     "flightdeck workflow show release-train.jsonc --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: flightdeck workflow show [flags] <file>")
			}

			content, err := workflowdef.ReadFile(args[0])
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(content); done {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s (project %s)\n", content.Name, content.Project)
			if content.ApprovalTicket != "" {
				fmt.Fprintf(os.Stdout, "approval ticket: %s\n", content.ApprovalTicket)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, stage := range content.Stages {
				marker := ""
				if stage.ExecStage {
					marker = " [exec]"
				}
				fmt.Fprintf(tw, "\n%s%s\t\t\n", stage.Name, marker)
				for i := range stage.Jobs {
					job := &stage.Jobs[i]
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", job.Name, job.Type, describeSource(job))
				}
			}
			return tw.Flush()
		},
	}
}

func describeSource(job *schema.Job) string {
	if job.Spec.Source == schema.SourceFromJob {
		return "from " + job.Spec.Origin()
	}
	if job.Spec.Source == "" {
		return string(schema.SourceRuntime)
	}
	return string(job.Spec.Source)
}
