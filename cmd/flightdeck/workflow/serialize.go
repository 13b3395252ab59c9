// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/session"
	libworkflow "github.com/flightdeck-foundation/flightdeck/lib/workflow"
	"github.com/flightdeck-foundation/flightdeck/lib/workflowdef"
)

// serializeCommand returns the "serialize" subcommand for printing a
// preset's canonical submission body.
func serializeCommand() *cli.Command {
	var params struct {
		EnvironmentFile string `flag:"environment-file" desc:"environment snapshot JSON for variable resolution"`
		StageExec       bool   `flag:"stage-exec" desc:"restrict the run to exec-marked stages"`
		Force           bool   `flag:"force" desc:"print the body even when validation fails"`
	}

	return &cli.Command{
		Name:    "serialize",
		Summary: "Print the submission body a preset would produce",
		Description: `Run the full candidate computation over a preset — selection merging,
variable resolution against the environment snapshot, diff
bookkeeping — and print the canonical submission body as JSON,
without launching anything.

The output is byte-identical to what "flightdeck workflow launch"
would send, so it can be diffed across preset edits or archived for
review. Validation findings block the output unless --force is set.`,
		Usage: "flightdeck workflow serialize [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Serialize against a staging snapshot",
				Command:     "flightdeck workflow serialize release-train.jsonc --environment-file staging-eu.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("serialize", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: flightdeck workflow serialize [flags] <file>")
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

			logger := cli.NewCommandLogger().With("command", "workflow/serialize")
			sess, err := session.New(session.Config{
				Document:      content,
				Environment:   env,
				StageExecMode: params.StageExec,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			findings, err := sess.Validate()
			if err != nil {
				return err
			}
			if len(findings) > 0 && !params.Force {
				for _, finding := range findings {
					fmt.Fprintf(os.Stderr, "  - %s\n", finding)
				}
				return fmt.Errorf("%s: %d validation finding(s); use --force to serialize anyway", args[0], len(findings))
			}

			document, err := sess.Document()
			if err != nil {
				return err
			}
			request, err := libworkflow.Serialize(document, logger)
			if err != nil {
				return err
			}
			return cli.WriteJSON(request)
		},
	}
}
