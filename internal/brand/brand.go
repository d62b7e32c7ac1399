// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package brand provides the naming constants shared by the CLI, the
// orchestrator and the log scanner. The values are loaded from brand.json
// at compile time via go:embed so packaging scripts can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Description      string `json:"description"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	BinaryName       string `json:"binaryName"`
	WorkerBinary     string `json:"workerBinary"`
	WorkerTag        string `json:"workerTag"`
	WorkerConfigName string `json:"workerConfigName"`
	PidmapSuffix     string `json:"pidmapSuffix"`
	DefaultSyslog    string `json:"defaultSyslog"`
	DefaultOutput    string `json:"defaultOutput"`
	Copyright        string `json:"copyright"`
	License          string `json:"license"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Description = b.Description
	ConfigEnvPrefix = b.ConfigEnvPrefix
	BinaryName = b.BinaryName
	WorkerBinary = b.WorkerBinary
	WorkerTag = b.WorkerTag
	WorkerConfigName = b.WorkerConfigName
	PidmapSuffix = b.PidmapSuffix
	DefaultSyslog = b.DefaultSyslog
	DefaultOutput = b.DefaultOutput
	Copyright = b.Copyright
	License = b.License
}

var (
	Name             string
	LowerName        string
	Description      string
	ConfigEnvPrefix  string
	BinaryName       string
	WorkerBinary     string
	WorkerTag        string
	WorkerConfigName string
	PidmapSuffix     string
	DefaultSyslog    string
	DefaultOutput    string
	Copyright        string
	License          string

	// Version is set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// Banner returns the one-line identification printed by the CLI.
func Banner() string {
	return Name + " " + Version + " (" + Copyright + ", " + License + ")"
}
