// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// EnvironmentSnapshot is the workbench's read-only view of one
// deployment environment at a point in time: which modules are
// deployed with which variable values, the current content of config
// items, and the last applied database statements. Enrichment
// collaborators populate it; adapters only read it. A session holds
// exactly one snapshot and replaces it wholesale when refreshed.
type EnvironmentSnapshot struct {
	// Name is the environment's display name (e.g., "staging-eu").
	Name string `json:"name"`

	// Modules is the per service/module deployment state.
	Modules []ModuleEnvironment `json:"modules,omitempty"`

	// ConfigValues is the current content of known config items.
	ConfigValues []ConfigValue `json:"config_values,omitempty"`

	// Statements records the last applied statement per database
	// connection.
	Statements []AppliedStatement `json:"statements,omitempty"`
}

// ModuleEnvironment is the environment's state for one service/module
// pair, carrying the three variable value sets the deploy inheritance
// rule chooses between.
type ModuleEnvironment struct {
	ServiceName string `json:"service_name"`
	Module      string `json:"module"`

	// Deployed reports whether the module is currently running in
	// this environment.
	Deployed bool `json:"deployed,omitempty"`

	// Overrides are the variable values the running deployment was
	// launched with. Preferred for deployed targets.
	Overrides []VariableValue `json:"overrides,omitempty"`

	// Defaults are the service's declared default values. Preferred
	// for undeployed targets.
	Defaults []VariableValue `json:"defaults,omitempty"`

	// Latest are the newest values in the environment's variable
	// store, which may be ahead of what the running deployment was
	// launched with. A target's use-latest flag forces these.
	Latest []VariableValue `json:"latest,omitempty"`
}

// Key returns the module's identity key, matching Target.Key.
func (m ModuleEnvironment) Key() string {
	return m.ServiceName + "/" + m.Module
}

// ConfigValue is the environment's current content for one config
// item.
type ConfigValue struct {
	Group     string `json:"group"`
	Namespace string `json:"namespace"`
	DataID    string `json:"data_id"`
	Content   string `json:"content"`
}

// Key returns the item's identity key, matching ConfigItem.Key.
func (c ConfigValue) Key() string {
	return c.Group + "/" + c.Namespace + "/" + c.DataID
}

// AppliedStatement records the last statement applied through a
// database connection, for change-detection display on db-change
// jobs.
type AppliedStatement struct {
	Connection string `json:"connection"`
	Statement  string `json:"statement"`
}

// Module returns the environment state for the given service/module
// key, or nil when the environment has never seen the module. A nil
// result is how adapters learn a target is both undeployed and has no
// recorded defaults.
func (e *EnvironmentSnapshot) Module(key string) *ModuleEnvironment {
	if e == nil {
		return nil
	}
	for i := range e.Modules {
		if e.Modules[i].Key() == key {
			return &e.Modules[i]
		}
	}
	return nil
}

// ConfigContent returns the current content of the named config item.
// ok is false when the environment does not hold the item.
func (e *EnvironmentSnapshot) ConfigContent(key string) (content string, ok bool) {
	if e == nil {
		return "", false
	}
	for i := range e.ConfigValues {
		if e.ConfigValues[i].Key() == key {
			return e.ConfigValues[i].Content, true
		}
	}
	return "", false
}

// LastStatement returns the last applied statement for a connection,
// or the empty string when none is recorded.
func (e *EnvironmentSnapshot) LastStatement(connection string) string {
	if e == nil {
		return ""
	}
	for i := range e.Statements {
		if e.Statements[i].Connection == connection {
			return e.Statements[i].Statement
		}
	}
	return ""
}
