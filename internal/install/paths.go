// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package install

import (
	"os"
	"path/filepath"
	"strings"

	"grimm.is/yamato/internal/brand"
)

// Build-time path overrides (set via -ldflags)
var (
	BuildDefaultRunDir = ""
	BuildDefaultSyslog = ""
)

// GetRunDir returns the directory holding the transient worker config and
// identity files.
// Priority: YAMATO_RUN_DIR > BuildDefaultRunDir > working directory
func GetRunDir() string {
	if dir := os.Getenv(brand.ConfigEnvPrefix + "_RUN_DIR"); dir != "" {
		return dir
	}
	if BuildDefaultRunDir != "" {
		return BuildDefaultRunDir
	}
	return "."
}

// GetSyslogPath returns the system log scanned for worker activity.
// Priority: YAMATO_SYSLOG > BuildDefaultSyslog > brand default
func GetSyslogPath() string {
	if path := os.Getenv(brand.ConfigEnvPrefix + "_SYSLOG"); path != "" {
		return path
	}
	if BuildDefaultSyslog != "" {
		return BuildDefaultSyslog
	}
	return brand.DefaultSyslog
}

// GetWorkerBinary returns the worker executable name or path.
func GetWorkerBinary() string {
	if bin := os.Getenv(brand.ConfigEnvPrefix + "_WORKER_BINARY"); bin != "" {
		return bin
	}
	return brand.WorkerBinary
}

// GetSettingsPath returns the settings file named by YAMATO_SETTINGS, if any.
func GetSettingsPath() string {
	return os.Getenv(brand.ConfigEnvPrefix + "_SETTINGS")
}

// GetMetricsFile returns the textfile-collector output named by
// YAMATO_METRICS_FILE, if any.
func GetMetricsFile() string {
	return os.Getenv(brand.ConfigEnvPrefix + "_METRICS_FILE")
}

// PidmapPath returns the persisted process map for a configuration.
// The map sits next to the configuration: "fleet.conf" -> "fleet.conf.pidmap".
func PidmapPath(configPath string) string {
	return configPath + brand.PidmapSuffix
}

// FindPidmap scans dir for the first *.pidmap file and returns the
// configuration path it belongs to. ok is false when none exists.
func FindPidmap(dir string) (configPath string, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if base, found := strings.CutSuffix(name, brand.PidmapSuffix); found && base != "" {
			if dir == "." {
				return base, true
			}
			return filepath.Join(dir, base), true
		}
	}
	return "", false
}
