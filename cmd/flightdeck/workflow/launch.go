// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/config"
	"github.com/flightdeck-foundation/flightdeck/lib/gateway"
	"github.com/flightdeck-foundation/flightdeck/lib/session"
)

// launchCommand returns the "launch" subcommand: fetch a preset,
// validate it, serialize it, and submit it to the pipeline gateway.
func launchCommand() *cli.Command {
	var params struct {
		Config      string `flag:"config" desc:"config file path (defaults to $FLIGHTDECK_CONFIG)"`
		Environment string `flag:"environment" desc:"named environment snapshot for variable resolution"`
		Ticket      string `flag:"ticket" desc:"change-management approval ticket"`
		Debug       bool   `flag:"debug" desc:"request debug-mode execution from the backend"`
		StageExec   bool   `flag:"stage-exec" desc:"restrict the run to exec-marked stages"`
	}

	return &cli.Command{
		Name:    "launch",
		Summary: "Submit a stored preset to the pipeline backend",
		Description: `Fetch a preset from the configured preset directory, build a
session over it, and submit the serialized run request to the
pipeline gateway. The argument is the preset's path in
<project>/<workflow> form.

The submission payload is archived in the local spool before it
leaves the machine, and the returned task identifier is printed on
success.`,
		Usage: "flightdeck workflow launch [flags] <project>/<workflow>",
		Examples: []cli.Example{
			{
				Description: "Launch the checkout release train against staging",
				Command:     "flightdeck workflow launch payments/release-train --environment staging-eu",
			},
			{
				Description: "Launch under an approval ticket",
				Command:     "flightdeck workflow launch payments/release-train --ticket CHG-1042",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("launch", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: flightdeck workflow launch [flags] <project>/<workflow>")
			}
			project, workflowName, ok := strings.Cut(args[0], "/")
			if !ok || project == "" || workflowName == "" {
				return fmt.Errorf("preset reference %q: want <project>/<workflow>", args[0])
			}

			var cfg *config.Config
			var err error
			if params.Config != "" {
				cfg, err = config.LoadFile(params.Config)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if params.Debug && !cfg.Gateway.AllowDebug {
				return fmt.Errorf("debug launches are disabled in the %s environment", cfg.Environment)
			}
			if err := cfg.EnsurePaths(); err != nil {
				return err
			}
			timeout, err := cfg.GatewayTimeout()
			if err != nil {
				return fmt.Errorf("gateway timeout: %w", err)
			}

			logger := cli.NewCommandLogger().With("command", "workflow/launch")

			spool, err := gateway.NewSpool(cfg.Paths.Spool)
			if err != nil {
				return err
			}
			client, err := gateway.NewClient(gateway.Config{
				BaseURL:    cfg.Gateway.BaseURL,
				Token:      cfg.Gateway.Token,
				HTTPClient: &http.Client{Timeout: timeout},
				Logger:     logger,
				Spool:      spool,
			})
			if err != nil {
				return err
			}

			ctx := context.Background()
			presets := gateway.NewFileSource(cfg.Paths.Presets)
			content, err := presets.FetchPreset(ctx, gateway.PresetRequest{
				Workflow:       workflowName,
				Project:        project,
				ApprovalTicket: params.Ticket,
			})
			if err != nil {
				return err
			}

			env, err := loadEnvironmentFile(environmentPath(cfg, params.Environment))
			if err != nil {
				return err
			}

			sess, err := session.New(session.Config{
				Document:      content,
				Environment:   env,
				Launcher:      client,
				StageExecMode: params.StageExec || cfg.Workbench.StageExecMode,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			taskID, err := sess.Submit(ctx, params.Debug)
			if err != nil {
				var verr *session.ValidationError
				if errors.As(err, &verr) {
					for _, finding := range verr.Findings {
						fmt.Fprintf(os.Stderr, "  - %s\n", finding)
					}
				}
				return err
			}
			fmt.Printf("launched %s/%s as task %s\n", project, workflowName, taskID)
			return nil
		},
	}
}

// environmentPath resolves a named environment to its snapshot file
// under the configured environments directory. An empty name means no
// snapshot.
func environmentPath(cfg *config.Config, name string) string {
	if name == "" {
		return ""
	}
	return cfg.EnvironmentFile(name)
}
