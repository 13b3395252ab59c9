// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"os"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/workflowdef"
)

// validateCommand returns the "validate" subcommand for validating preset files.
func validateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Summary: "Validate a local workflow preset file",
		Description: `Validate a local workflow preset file. Checks that the JSONC is
well-formed and conforms to the workflow schema: at least one stage,
every job named exactly once, each job's type matching its payload,
and every fromjob chain reaching a real, non-cyclic origin.

Does not access the gateway — this is a purely local check and does
not catch problems only a live environment reveals (an empty
selection, an unresolved code reference). Use "flightdeck workflow
simulate" for the full derived-state check.

Preset files use JSONC: JSON extended with // line comments,
/* block comments */, and trailing commas. Comments are stripped
before validation.`,
		Usage: "flightdeck workflow validate <file>",
		Examples: []cli.Example{
			{
				Description: "Validate a workflow preset",
				Command:     "flightdeck workflow validate release-train.jsonc",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: flightdeck workflow validate <file>")
			}

			path := args[0]
			content, err := workflowdef.ReadFile(path)
			if err != nil {
				return err
			}

			issues := workflowdef.Validate(content)
			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "  - %s\n", issue)
				}
				return fmt.Errorf("%s: %d validation issue(s) found", path, len(issues))
			}

			fmt.Fprintf(os.Stdout, "%s: valid\n", path)
			return nil
		},
	}
}
