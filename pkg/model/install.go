// Package model provides the records, manifest documents and event payloads
// shared by the gamekeep orchestration engine and its collaborators.
package model

// Install is a local game installation tracked by the store.
type Install struct {
	ID               string `json:"id"`
	ManifestID       string `json:"manifest_id"`
	Version          string `json:"version"`
	Name             string `json:"name"`
	Directory        string `json:"directory"`
	RunnerPath       string `json:"runner_path,omitempty"`
	RunnerPrefix     string `json:"runner_prefix,omitempty"`
	LaunchCommand    string `json:"launch_command,omitempty"`
	PreLaunchCommand string `json:"pre_launch_command,omitempty"`
	EnvVars          string `json:"env_vars,omitempty"`
	Icon             string `json:"icon,omitempty"`
	Background       string `json:"background,omitempty"`

	SkipHashValidation bool `json:"skip_hash_validation"`
	SkipVersionUpdate  bool `json:"skip_version_update"`
	UseFPSUnlock       bool `json:"use_fps_unlock"`
	UseXXMI            bool `json:"use_xxmi"`
	UseJadeite         bool `json:"use_jadeite"`
}

// ManifestRecord points an install at the game manifest document describing it.
type ManifestRecord struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
}

// InstallUpdate carries the fields rewritten on an install after a successful update.
// Empty Directory and RunnerPrefix leave the stored values untouched.
type InstallUpdate struct {
	Name         string
	Icon         string
	Background   string
	Version      string
	Directory    string
	RunnerPrefix string
}

// Apply copies the update onto inst.
func (u InstallUpdate) Apply(inst *Install) {
	inst.Name = u.Name
	inst.Icon = u.Icon
	inst.Background = u.Background
	inst.Version = u.Version
	if u.Directory != "" {
		inst.Directory = u.Directory
	}
	if u.RunnerPrefix != "" {
		inst.RunnerPrefix = u.RunnerPrefix
	}
}
