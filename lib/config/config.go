// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Flightdeck.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Gateway configures the run gateway client.
	Gateway GatewayConfig `yaml:"gateway"`

	// Workbench configures the workbench HTTP service.
	Workbench WorkbenchConfig `yaml:"workbench"`

	// Enrich configures external enrichment sources.
	Enrich EnrichConfig `yaml:"enrich"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Gateway   *GatewayConfig   `yaml:"gateway,omitempty"`
	Workbench *WorkbenchConfig `yaml:"workbench,omitempty"`
	Enrich    *EnrichConfig    `yaml:"enrich,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Flightdeck data.
	Root string `yaml:"root"`

	// Presets is the directory holding workflow preset files,
	// laid out as <project>/<workflow>.jsonc.
	Presets string `yaml:"presets"`

	// Spool is where serialized run bodies are archived before
	// submission.
	Spool string `yaml:"spool"`

	// Clones is the base directory for local repository clones used
	// by the local code host.
	Clones string `yaml:"clones"`

	// Environments is the directory holding environment snapshot
	// files, one <name>.json per environment.
	Environments string `yaml:"environments"`
}

// GatewayConfig configures the run gateway client.
type GatewayConfig struct {
	// BaseURL is the gateway's HTTP endpoint.
	// Default: http://localhost:8780
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token for gateway requests. Empty sends
	// unauthenticated requests.
	Token string `yaml:"token"`

	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout string `yaml:"timeout"`

	// AllowDebug permits debug-mode launches.
	// Default: true (development), false (production)
	AllowDebug bool `yaml:"allow_debug"`
}

// WorkbenchConfig configures the workbench HTTP service.
type WorkbenchConfig struct {
	// Listen is the address the service binds.
	// Default: 127.0.0.1:8781
	Listen string `yaml:"listen"`

	// SessionIdleTimeout is how long an untouched session survives
	// before the reaper discards it.
	// Default: 4h
	SessionIdleTimeout string `yaml:"session_idle_timeout"`

	// StageExecMode restricts launches to jobs inside exec-marked
	// stages.
	StageExecMode bool `yaml:"stage_exec_mode"`

	// Token is the bearer token workbench clients must present.
	// Empty means unauthenticated; development workbenches bind
	// loopback only.
	Token string `yaml:"token"`
}

// EnrichConfig configures external enrichment sources.
type EnrichConfig struct {
	// CodeHost selects the code host backend.
	// Values: "local" (clones under Paths.Clones), "none"
	// Default: local
	CodeHost string `yaml:"code_host"`

	// RegistryURL is the image registry endpoint for deploy version
	// lookups. Empty disables the lookup.
	RegistryURL string `yaml:"registry_url"`

	// DirectoryURL is the principal directory endpoint for approver
	// search. Empty disables the search.
	DirectoryURL string `yaml:"directory_url"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "flightdeck")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:         defaultRoot,
			Presets:      filepath.Join(defaultRoot, "presets"),
			Spool:        filepath.Join(defaultRoot, "spool"),
			Clones:       filepath.Join(defaultRoot, "clones"),
			Environments: filepath.Join(defaultRoot, "environments"),
		},
		Gateway: GatewayConfig{
			BaseURL:    "http://localhost:8780",
			Timeout:    "30s",
			AllowDebug: true,
		},
		Workbench: WorkbenchConfig{
			Listen:             "127.0.0.1:8781",
			SessionIdleTimeout: "4h",
		},
		Enrich: EnrichConfig{
			CodeHost: "local",
		},
	}
}

// Load loads configuration from FLIGHTDECK_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if FLIGHTDECK_CONFIG is not set,
// this fails. This ensures deterministic, auditable configuration with
// no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("FLIGHTDECK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FLIGHTDECK_CONFIG environment variable not set; " +
			"set it to the path of your flightdeck.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values - this ensures deterministic, auditable
// configuration. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: no debug launches.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Gateway: &GatewayConfig{
					AllowDebug: false,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Presets != "" {
			c.Paths.Presets = overrides.Paths.Presets
		}
		if overrides.Paths.Spool != "" {
			c.Paths.Spool = overrides.Paths.Spool
		}
		if overrides.Paths.Clones != "" {
			c.Paths.Clones = overrides.Paths.Clones
		}
		if overrides.Paths.Environments != "" {
			c.Paths.Environments = overrides.Paths.Environments
		}
	}

	if overrides.Gateway != nil {
		if overrides.Gateway.BaseURL != "" {
			c.Gateway.BaseURL = overrides.Gateway.BaseURL
		}
		if overrides.Gateway.Token != "" {
			c.Gateway.Token = overrides.Gateway.Token
		}
		if overrides.Gateway.Timeout != "" {
			c.Gateway.Timeout = overrides.Gateway.Timeout
		}
		// AllowDebug is a bool, so we always apply it from overrides.
		c.Gateway.AllowDebug = overrides.Gateway.AllowDebug
	}

	if overrides.Workbench != nil {
		if overrides.Workbench.Listen != "" {
			c.Workbench.Listen = overrides.Workbench.Listen
		}
		if overrides.Workbench.SessionIdleTimeout != "" {
			c.Workbench.SessionIdleTimeout = overrides.Workbench.SessionIdleTimeout
		}
		c.Workbench.StageExecMode = overrides.Workbench.StageExecMode
		if overrides.Workbench.Token != "" {
			c.Workbench.Token = overrides.Workbench.Token
		}
	}

	if overrides.Enrich != nil {
		if overrides.Enrich.CodeHost != "" {
			c.Enrich.CodeHost = overrides.Enrich.CodeHost
		}
		if overrides.Enrich.RegistryURL != "" {
			c.Enrich.RegistryURL = overrides.Enrich.RegistryURL
		}
		if overrides.Enrich.DirectoryURL != "" {
			c.Enrich.DirectoryURL = overrides.Enrich.DirectoryURL
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"FLIGHTDECK_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["FLIGHTDECK_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Presets = expandVars(c.Paths.Presets, vars)
	c.Paths.Spool = expandVars(c.Paths.Spool, vars)
	c.Paths.Clones = expandVars(c.Paths.Clones, vars)
	c.Paths.Environments = expandVars(c.Paths.Environments, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Gateway.BaseURL == "" {
		errs = append(errs, fmt.Errorf("gateway.base_url is required"))
	}
	if _, err := c.GatewayTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("gateway.timeout: %w", err))
	}

	if c.Workbench.Listen == "" {
		errs = append(errs, fmt.Errorf("workbench.listen is required"))
	}
	if _, err := c.SessionIdleTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("workbench.session_idle_timeout: %w", err))
	}

	codeHosts := []string{"local", "none"}
	if !contains(codeHosts, c.Enrich.CodeHost) {
		errs = append(errs, fmt.Errorf("enrich.code_host must be one of: %v", codeHosts))
	}

	if c.Environment == Production && c.Gateway.Token == "" {
		errs = append(errs, fmt.Errorf("gateway.token is required in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// GatewayTimeout parses the gateway request timeout.
func (c *Config) GatewayTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Gateway.Timeout)
}

// SessionIdleTimeout parses the workbench session idle timeout.
func (c *Config) SessionIdleTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Workbench.SessionIdleTimeout)
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Presets,
		c.Paths.Spool,
		c.Paths.Clones,
		c.Paths.Environments,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// EnvironmentFile returns the snapshot file path for a named target
// environment.
func (c *Config) EnvironmentFile(name string) string {
	return filepath.Join(c.Paths.Environments, name+".json")
}
