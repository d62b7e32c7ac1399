// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package session carries the state of one CLI invocation: settings, the
// loaded process map, the filtered log and the metrics registry. Nothing in
// it outlives the invocation.
package session

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"grimm.is/yamato/internal/analytics"
	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/ingest"
	"grimm.is/yamato/internal/install"
	"grimm.is/yamato/internal/logging"
	"grimm.is/yamato/internal/metrics"
	"grimm.is/yamato/internal/netutil"
	"grimm.is/yamato/internal/state"
	"grimm.is/yamato/internal/supervisor"
)

// Session is created empty and discarded at the end of a run.
type Session struct {
	ID       string
	Settings *config.Settings
	Logger   *logging.Logger
	Metrics  *metrics.Metrics

	// LogInput replaces the system log as the source for reports.
	LogInput string
	// ExtraArgs are appended to every worker command line after the
	// settings' extra_args.
	ExtraArgs []string

	tables   map[string]*state.Table
	ingester *ingest.Ingester
	orch     *supervisor.Orchestrator
}

// New starts a session for settings.
func New(settings *config.Settings, logger *logging.Logger) *Session {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = logging.Default()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Settings: settings,
		Logger:   logger.With("run", id),
		Metrics:  metrics.New(),
		tables:   make(map[string]*state.Table),
	}
}

// NewLogger builds the run's logger from settings.
func NewLogger(s *config.Settings) *logging.Logger {
	return logging.New(LoggerConfig(s))
}

// LoggerConfig maps the logging fields of the tool settings.
func LoggerConfig(s *config.Settings) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(s.LogLevel)
	cfg.JSON = s.LogJSON
	cfg.Syslog = logging.SyslogFromAddress(s.RemoteSyslog)
	return cfg
}

// Ingester returns the log source for this run, creating it on first use.
func (s *Session) Ingester() *ingest.Ingester {
	if s.ingester == nil {
		path := s.LogInput
		if path == "" {
			path = s.Settings.SyslogPath
		}
		s.ingester = ingest.New(path, s.Settings.WorkerTag)
	}
	return s.ingester
}

// Orchestrator returns the process orchestrator for this run.
func (s *Session) Orchestrator() *supervisor.Orchestrator {
	if s.orch != nil {
		return s.orch
	}
	opts := supervisor.OptionsFromSettings(s.Settings)
	opts.ExtraArgs = append(opts.ExtraArgs, s.ExtraArgs...)
	opts.ResolveLocal = netutil.MachineIP

	o := supervisor.New(opts)
	o.Logger = s.Logger.WithComponent("supervisor")
	o.Metrics = s.Metrics
	o.Log = s.Ingester()
	o.Rotator = &supervisor.SyslogRotator{
		Path:           s.Settings.SyslogPath,
		RestartCommand: s.Settings.RestartCommand,
	}
	s.orch = o
	return o
}

// Table loads the process map for configPath once per run.
func (s *Session) Table(configPath string) (*state.Table, error) {
	if t, ok := s.tables[configPath]; ok {
		return t, nil
	}
	t, err := state.Load(install.PidmapPath(configPath))
	if err != nil {
		return nil, err
	}
	s.tables[configPath] = t
	s.Metrics.FleetSize.Set(float64(t.Len()))
	return t, nil
}

// Events reconstructs the connection events of the fleet in configPath.
func (s *Session) Events(configPath string) ([]analytics.Event, error) {
	table, err := s.Table(configPath)
	if err != nil {
		return nil, err
	}
	in := s.Ingester()
	if err := in.UpdateLog(); err != nil {
		return nil, err
	}

	s.Metrics.LinesScanned.Set(float64(in.Scanned()))
	s.Metrics.LinesRetained.Set(float64(len(in.Lines())))

	events := analytics.FormatEvents(table, in.Lines(), s.Settings.WorkerTag)
	s.Metrics.ConnectEvents.Add(float64(len(events)))
	s.Logger.Info("log scanned",
		"lines", humanize.Comma(int64(in.Scanned())),
		"retained", humanize.Comma(int64(len(in.Lines()))),
		"events", humanize.Comma(int64(len(events))))
	return events, nil
}

// Statistics ranks the events of configPath.
func (s *Session) Statistics(configPath string) (analytics.Statistics, error) {
	events, err := s.Events(configPath)
	if err != nil {
		return analytics.Statistics{}, err
	}
	return analytics.Compute(events), nil
}

// Archive appends this run's events to the SQLite archive at dbPath and
// returns how many were written.
func (s *Session) Archive(configPath, dbPath string) (int, error) {
	events, err := s.Events(configPath)
	if err != nil {
		return 0, err
	}
	store, err := analytics.Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.RecordEvents(s.ID, events); err != nil {
		return 0, errors.Attr(err, "db", dbPath)
	}
	return len(events), nil
}

// Close flushes metrics to the textfile collector when configured.
func (s *Session) Close() error {
	if s.Settings.MetricsFile == "" {
		return nil
	}
	return s.Metrics.WriteTextfile(s.Settings.MetricsFile)
}
