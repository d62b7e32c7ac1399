// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/install"
)

// Sweep policies for unloading a fleet.
const (
	SweepCompat  = "compat"
	SweepUniform = "uniform"
)

// DefaultReadyTimeout bounds the wait for a worker's identity file.
const DefaultReadyTimeout = 5 * time.Second

// Settings configures the manager itself, as opposed to the fleet file
// which configures the workers.
type Settings struct {
	WorkerBinary   string   `hcl:"worker_binary,optional" toml:"worker_binary" yaml:"worker_binary"`
	WorkerTag      string   `hcl:"worker_tag,optional" toml:"worker_tag" yaml:"worker_tag"`
	ExtraArgs      []string `hcl:"extra_args,optional" toml:"extra_args" yaml:"extra_args"`
	SyslogPath     string   `hcl:"syslog_path,optional" toml:"syslog_path" yaml:"syslog_path"`
	WorkDir        string   `hcl:"work_dir,optional" toml:"work_dir" yaml:"work_dir"`
	ReadyTimeout   string   `hcl:"ready_timeout,optional" toml:"ready_timeout" yaml:"ready_timeout"`
	RotateLog      *bool    `hcl:"rotate_log,optional" toml:"rotate_log" yaml:"rotate_log"`
	RestartCommand []string `hcl:"restart_command,optional" toml:"restart_command" yaml:"restart_command"`
	SweepPolicy    string   `hcl:"sweep_policy,optional" toml:"sweep_policy" yaml:"sweep_policy"`
	LogLevel       string   `hcl:"log_level,optional" toml:"log_level" yaml:"log_level"`
	LogJSON        bool     `hcl:"log_json,optional" toml:"log_json" yaml:"log_json"`
	RemoteSyslog   string   `hcl:"remote_syslog,optional" toml:"remote_syslog" yaml:"remote_syslog"`
	MetricsFile    string   `hcl:"metrics_file,optional" toml:"metrics_file" yaml:"metrics_file"`
}

// DefaultSettings reproduces the behavior of a bare invocation.
func DefaultSettings() *Settings {
	rotate := true
	return &Settings{
		WorkerBinary:   brand.WorkerBinary,
		WorkerTag:      brand.WorkerTag,
		SyslogPath:     brand.DefaultSyslog,
		WorkDir:        ".",
		ReadyTimeout:   DefaultReadyTimeout.String(),
		RotateLog:      &rotate,
		RestartCommand: []string{"service", "rsyslog", "restart"},
		SweepPolicy:    SweepCompat,
		LogLevel:       "info",
	}
}

// LoadSettings reads an optional settings file and applies environment
// overrides. The format follows the extension: .hcl, .toml, .yaml/.yml;
// anything else is tried as HCL. An empty path yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Attr(errors.Wrap(err, errors.KindMissingInput, "cannot read settings"), "settings", path)
		}

		var file Settings
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, &file)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &file)
		case ".hcl":
			err = hclsimple.Decode(path, data, nil, &file)
		default:
			err = hclsimple.Decode(filepath.Base(path)+".hcl", data, nil, &file)
		}
		if err != nil {
			return nil, errors.Attr(errors.Wrap(err, errors.KindValidation, "failed to decode settings"), "settings", path)
		}
		s.overlay(&file)
	}

	s.ApplyEnv()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) overlay(o *Settings) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&s.WorkerBinary, o.WorkerBinary)
	setString(&s.WorkerTag, o.WorkerTag)
	setString(&s.SyslogPath, o.SyslogPath)
	setString(&s.WorkDir, o.WorkDir)
	setString(&s.ReadyTimeout, o.ReadyTimeout)
	setString(&s.SweepPolicy, o.SweepPolicy)
	setString(&s.LogLevel, o.LogLevel)
	setString(&s.RemoteSyslog, o.RemoteSyslog)
	setString(&s.MetricsFile, o.MetricsFile)
	if len(o.ExtraArgs) > 0 {
		s.ExtraArgs = o.ExtraArgs
	}
	if len(o.RestartCommand) > 0 {
		s.RestartCommand = o.RestartCommand
	}
	if o.RotateLog != nil {
		s.RotateLog = o.RotateLog
	}
	if o.LogJSON {
		s.LogJSON = true
	}
}

// ApplyEnv lets YAMATO_* variables win over file values.
func (s *Settings) ApplyEnv() {
	prefix := brand.ConfigEnvPrefix
	if v := os.Getenv(prefix + "_WORKER_BINARY"); v != "" {
		s.WorkerBinary = install.GetWorkerBinary()
	}
	if v := os.Getenv(prefix + "_SYSLOG"); v != "" {
		s.SyslogPath = install.GetSyslogPath()
	}
	if v := os.Getenv(prefix + "_RUN_DIR"); v != "" {
		s.WorkDir = install.GetRunDir()
	}
	if v := install.GetMetricsFile(); v != "" {
		s.MetricsFile = v
	}
}

// Validate checks values that cannot be defaulted silently.
func (s *Settings) Validate() error {
	d, err := time.ParseDuration(s.ReadyTimeout)
	if err != nil || d <= 0 {
		return errors.Attr(errors.New(errors.KindValidation, "ready_timeout must be a positive duration"), "ready_timeout", s.ReadyTimeout)
	}
	switch s.SweepPolicy {
	case SweepCompat, SweepUniform:
	default:
		return errors.Attr(errors.New(errors.KindValidation, "unknown sweep_policy"), "sweep_policy", s.SweepPolicy)
	}
	if s.WorkerBinary == "" {
		return errors.New(errors.KindValidation, "worker_binary must not be empty")
	}
	return nil
}

// ReadyTimeoutDuration returns the validated ready timeout.
func (s *Settings) ReadyTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ReadyTimeout)
	if err != nil || d <= 0 {
		return DefaultReadyTimeout
	}
	return d
}

// ShouldRotate reports whether unloading rotates the system log.
func (s *Settings) ShouldRotate() bool {
	return s.RotateLog == nil || *s.RotateLog
}
