// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Selection holds a job's confirmed picks. Which of the three lists a
// job uses depends on its type: build, scan, and test jobs pick
// targets; deploy jobs pick modules (runtime source) or targets
// (fromjob source); config-change jobs pick config items. The merge
// rules in lib/workflow preserve picks by identity key when the
// candidate set changes underneath them.
type Selection struct {
	// Targets are the confirmed service/module picks.
	Targets []Target `json:"picked_targets,omitempty"`

	// Modules are the confirmed module picks of a runtime-source
	// deploy job.
	Modules []Module `json:"picked_modules,omitempty"`

	// Items are the confirmed config-item picks of a config-change
	// job.
	Items []ConfigItem `json:"picked_items,omitempty"`
}

// Empty reports whether the selection holds no picks of any kind.
func (s Selection) Empty() bool {
	return len(s.Targets) == 0 && len(s.Modules) == 0 && len(s.Items) == 0
}

// Target is one service/module unit a job acts on. Build jobs attach
// a code reference per target; deploy-like jobs attach resolved
// variable values and the deployed/use-latest state that drove their
// resolution.
type Target struct {
	// ServiceName and Module form the target's identity. Two targets
	// with the same pair are the same unit regardless of any other
	// field.
	ServiceName string `json:"service_name"`
	Module      string `json:"module"`

	// CodeRef is the code reference a build target compiles from.
	CodeRef *CodeRef `json:"code_ref,omitempty"`

	// RepoSync marks a build target whose code reference was already
	// resolved upstream — the backend syncs the repository state
	// instead of resolving a ref here.
	RepoSync bool `json:"repo_sync,omitempty"`

	// Scannings are the scanning names enabled for this target on a
	// scan job.
	Scannings []string `json:"scannings,omitempty"`

	// Suites are the test suite names enabled for this target on a
	// test job.
	Suites []string `json:"suites,omitempty"`

	// Deployed records whether the environment snapshot reported
	// this target as currently deployed when its variables were
	// resolved. Deployed targets take the environment's override
	// values; undeployed ones take the service defaults.
	Deployed bool `json:"deployed,omitempty"`

	// UseLatest forces the newest snapshot variable values for this
	// target regardless of deployed state.
	UseLatest bool `json:"use_latest,omitempty"`

	// Variables are the resolved variable values this target
	// deploys with.
	Variables []VariableValue `json:"variables,omitempty"`
}

// Key returns the stable identity key for selection merging:
// service name and module.
func (t Target) Key() string {
	return t.ServiceName + "/" + t.Module
}

// Module is one module pick of a runtime-source deploy job. It shares
// Target's identity scheme (service name + module) but carries only
// the deploy-relevant fields.
type Module struct {
	ServiceName string `json:"service_name"`
	Module      string `json:"module"`

	// Deployed, UseLatest, and Variables have the same semantics as
	// the corresponding Target fields.
	Deployed  bool            `json:"deployed,omitempty"`
	UseLatest bool            `json:"use_latest,omitempty"`
	Variables []VariableValue `json:"variables,omitempty"`
}

// Key returns the stable identity key for selection merging.
func (m Module) Key() string {
	return m.ServiceName + "/" + m.Module
}

// ConfigItem is one configuration item a config-change job proposes a
// new value for.
type ConfigItem struct {
	// Group, Namespace, and DataID form the item's identity.
	Group     string `json:"group"`
	Namespace string `json:"namespace"`
	DataID    string `json:"data_id"`

	// Content is the proposed new value.
	Content string `json:"content,omitempty"`

	// Format is the content format hint (yaml, properties, json).
	Format string `json:"format,omitempty"`

	// DiffSegments is the number of segments in the diff between
	// Content and the environment's current value. One segment means
	// the texts are identical — the change is a no-op. Edit-time
	// bookkeeping: drives display and the derived skip rule,
	// stripped at serialization.
	DiffSegments int `json:"diff_segments,omitempty"`
}

// Key returns the stable identity key for selection merging: group,
// namespace, and data id.
func (c ConfigItem) Key() string {
	return c.Group + "/" + c.Namespace + "/" + c.DataID
}

// VariableValue is one named variable value attached to a deploy
// target or module.
type VariableValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ServiceModuleOption is one entry of a job's own option list: a
// service/module this job is allowed to act on, fixed when the preset
// was authored. Candidate computation intersects the upstream job's
// exposed set with this list.
type ServiceModuleOption struct {
	ServiceName string `json:"service_name"`
	Module      string `json:"module"`

	// Repository is the code-host repository backing this module,
	// used by build jobs for branch/tag/PR lookups.
	Repository string `json:"repository,omitempty"`

	// RepoType is the version control flavor of Repository; see the
	// Repo* constants in coderef.go. Empty means git.
	RepoType string `json:"repo_type,omitempty"`

	// Scannings are the scanning names available for this module
	// (scan jobs only).
	Scannings []string `json:"scannings,omitempty"`

	// Suites are the test suites available for this module (test
	// jobs only).
	Suites []string `json:"suites,omitempty"`
}

// Key returns the option's identity key, matching Target.Key.
func (o ServiceModuleOption) Key() string {
	return o.ServiceName + "/" + o.Module
}

// BuildSpec configures a build job.
type BuildSpec struct {
	// Options is the set of service modules this job may build.
	Options []ServiceModuleOption `json:"options,omitempty"`

	// Candidates is the edit-time candidate cache: the targets the
	// operator can currently pick from, derived from Options and —
	// for fromjob sources — the resolved root job. Stripped at
	// serialization.
	Candidates []Target `json:"candidates,omitempty"`

	// Loading and Fetched track asynchronous enrichment (branch and
	// PR listings): Loading while a request is in flight, Fetched
	// once at least one response has been applied. Stripped at
	// serialization.
	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// DeploySpec configures a deploy job.
type DeploySpec struct {
	// Environment is the chosen deployment environment name.
	Environment string `json:"environment,omitempty"`

	// Options is the set of service modules this job may deploy.
	Options []ServiceModuleOption `json:"options,omitempty"`

	// Candidates is the fromjob candidate cache; CandidateModules is
	// the runtime-source equivalent. Both stripped at serialization.
	Candidates       []Target `json:"candidates,omitempty"`
	CandidateModules []Module `json:"candidate_modules,omitempty"`

	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// ScanSpec configures a scanning job.
type ScanSpec struct {
	Options    []ServiceModuleOption `json:"options,omitempty"`
	Candidates []Target              `json:"candidates,omitempty"`

	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// TestSpec configures a test job.
type TestSpec struct {
	Options    []ServiceModuleOption `json:"options,omitempty"`
	Candidates []Target              `json:"candidates,omitempty"`

	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// DBChangeSpec configures a database-change job.
type DBChangeSpec struct {
	// Connection is the selected database connection identifier.
	Connection string `json:"connection,omitempty"`

	// Database is the database name within the connection, when the
	// connection hosts more than one.
	Database string `json:"database,omitempty"`

	// Statement is the SQL text to apply.
	Statement string `json:"statement,omitempty"`

	// DiffSegments is the number of segments in the diff between
	// Statement and the environment's last applied statement for
	// this connection. Display-only; stripped at serialization.
	DiffSegments int `json:"diff_segments,omitempty"`

	// ConnectionOptions is the enrichment cache of available
	// connections. Stripped at serialization.
	ConnectionOptions []string `json:"connection_options,omitempty"`

	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// ConfigChangeSpec configures a config-change job.
type ConfigChangeSpec struct {
	// Group scopes which config groups this job may touch. Empty
	// means any group the preset's candidates expose.
	Group string `json:"group,omitempty"`

	// Candidates is the edit-time candidate cache of config items
	// the operator can pick from. Stripped at serialization.
	Candidates []ConfigItem `json:"candidates,omitempty"`

	Loading bool `json:"loading,omitempty"`
	Fetched bool `json:"fetched,omitempty"`
}

// ApprovalNodeKind distinguishes how an approval node's approvers are
// addressed.
type ApprovalNodeKind string

const (
	// ApprovalNodeUser nodes list individual user identifiers.
	ApprovalNodeUser ApprovalNodeKind = "user"

	// ApprovalNodeGroup nodes list group identifiers; any member of
	// a listed group may approve.
	ApprovalNodeGroup ApprovalNodeKind = "group"
)

// Valid reports whether k is a defined approval node kind.
func (k ApprovalNodeKind) Valid() bool {
	return k == ApprovalNodeUser || k == ApprovalNodeGroup
}

// ApprovalSpec configures an approval job: an ordered chain of
// sign-off nodes.
type ApprovalSpec struct {
	Nodes []ApprovalNode `json:"nodes,omitempty"`
}

// ApprovalNode is one stop in an approval chain.
type ApprovalNode struct {
	// Name is the node's display name (e.g., "team lead",
	// "release manager").
	Name string `json:"name"`

	// Kind selects whether Approvers are users or groups.
	Kind ApprovalNodeKind `json:"kind"`

	// Approvers are the chosen approver identifiers. Runtime-source
	// approval jobs require at least one per node.
	Approvers []string `json:"approvers,omitempty"`

	// CandidateApprovers is the directory-lookup enrichment cache.
	// Stripped at serialization.
	CandidateApprovers []string `json:"candidate_approvers,omitempty"`

	// Loading tracks an in-flight directory lookup. Stripped at
	// serialization.
	Loading bool `json:"loading,omitempty"`
}
