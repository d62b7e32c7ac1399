// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"time"

	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/install"
	"grimm.is/yamato/internal/logging"
	"grimm.is/yamato/internal/metrics"
	"grimm.is/yamato/internal/state"
)

const (
	// compatGoodThreshold is the number of signals after which the compat
	// sweep stops probing liveness.
	compatGoodThreshold = 3
	// compatFailLimit is the number of consecutive failed probes that end
	// the compat sweep.
	compatFailLimit = 5
)

// LogSource yields the log lines written by one worker.
type LogSource interface {
	GetLog(pid string) (iter.Seq[string], error)
}

// Options controls how workers are launched and stopped.
type Options struct {
	WorkerBinary string
	ExtraArgs    []string
	WorkDir      string
	ReadyTimeout time.Duration
	SweepPolicy  string
	RotateLog    bool

	// ResolveLocal is handed to the config parser for local nameservers.
	ResolveLocal func() (string, error)
}

// OptionsFromSettings maps tool settings onto orchestrator options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		WorkerBinary: s.WorkerBinary,
		ExtraArgs:    append([]string(nil), s.ExtraArgs...),
		WorkDir:      s.WorkDir,
		ReadyTimeout: s.ReadyTimeoutDuration(),
		SweepPolicy:  s.SweepPolicy,
		RotateLog:    s.ShouldRotate(),
	}
}

// Orchestrator drives the fleet for one configuration file at a time.
type Orchestrator struct {
	Options

	Spawner   Spawner
	Processes ProcessController
	Rotator   Rotator
	Log       LogSource
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
}

// New creates an Orchestrator wired to the real OS.
func New(opts Options) *Orchestrator {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if abs, err := filepath.Abs(opts.WorkDir); err == nil {
		opts.WorkDir = abs
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = config.DefaultReadyTimeout
	}
	if opts.SweepPolicy == "" {
		opts.SweepPolicy = config.SweepCompat
	}
	return &Orchestrator{
		Options:   opts,
		Spawner:   OSSpawner{},
		Processes: OSController{},
		Logger:    logging.WithComponent("supervisor"),
		Metrics:   metrics.New(),
	}
}

// workDir is the absolute run directory. Workers are started inside it, so
// the paths handed to them must not be relative to it a second time.
func (o *Orchestrator) workDir() string {
	if abs, err := filepath.Abs(o.WorkDir); err == nil {
		return abs
	}
	return o.WorkDir
}

func (o *Orchestrator) pidFile(port string) string {
	return filepath.Join(o.workDir(), port+".pid")
}

func (o *Orchestrator) workerConfigPath() string {
	return filepath.Join(o.workDir(), brand.WorkerConfigName)
}

// Start launches every worker in configPath and persists the process map.
// An existing map for the configuration is unloaded first; a map with no
// readable records is discarded with a warning. If a worker
// fails, the workers already running are still recorded so they can be
// unloaded, and the error is returned.
func (o *Orchestrator) Start(ctx context.Context, configPath string) ([]state.Record, error) {
	pidmap := install.PidmapPath(configPath)
	if state.Exists(pidmap) {
		o.Logger.Info("configuration already loaded, unloading first", "config", configPath)
		if _, err := o.Stop(ctx, configPath); err != nil {
			if errors.GetKind(err) != errors.KindMissingInput {
				return nil, errors.Wrap(err, errors.GetKind(err), "failed to unload before reload")
			}
			// A map without records names no workers; replace it.
			o.Logger.Warn("discarding unreadable process map", errors.LogFields(err)...)
			if err := state.Remove(pidmap); err != nil {
				return nil, err
			}
		}
	}

	parsed, err := config.ParseFile(configPath, config.Options{
		ResolveLocal: o.ResolveLocal,
		Logger:       o.Logger,
	})
	if err != nil {
		return nil, err
	}
	if len(parsed.Workers) == 0 {
		return nil, errors.Attr(errors.New(errors.KindValidation, "configuration defines no workers"), "config", configPath)
	}

	confPath := o.workerConfigPath()
	table := &state.Table{}
	var startErr error
	attempted := make([]string, 0, len(parsed.Workers))
	for _, w := range parsed.Workers {
		attempted = append(attempted, w.Port())
		rec, err := o.startWorker(ctx, confPath, w)
		if err != nil {
			startErr = errors.Attr(err, "port", w.Port())
			break
		}
		table.Records = append(table.Records, rec)
	}

	os.Remove(confPath)
	for _, port := range attempted {
		os.Remove(o.pidFile(port))
	}

	if table.Len() > 0 {
		if err := state.Save(pidmap, table); err != nil {
			return table.Records, errors.Join(startErr, err)
		}
	}
	o.Metrics.FleetSize.Set(float64(table.Len()))

	if startErr != nil {
		o.Logger.Error("fleet start incomplete", append(errors.LogFields(startErr), "started", table.Len(), "total", len(parsed.Workers))...)
		return table.Records, startErr
	}
	o.Logger.Info("fleet started", "config", configPath, "workers", table.Len(), "group", parsed.Group)
	return table.Records, nil
}

func (o *Orchestrator) startWorker(ctx context.Context, confPath string, w *config.AttributeSet) (state.Record, error) {
	port := w.Port()
	wc, err := config.NewWorkerConfig(w)
	if err != nil {
		o.Metrics.WorkerFailures.WithLabelValues("config").Inc()
		return state.Record{}, err
	}
	for _, k := range wc.Dropped {
		o.Logger.Warn("ignoring unreadable worker setting", "port", port, "key", k.String(), "value", w.Value(k))
	}
	data, err := wc.Encode()
	if err != nil {
		o.Metrics.WorkerFailures.WithLabelValues("config").Inc()
		return state.Record{}, err
	}
	if err := os.WriteFile(confPath, data, 0600); err != nil {
		o.Metrics.WorkerFailures.WithLabelValues("config").Inc()
		return state.Record{}, errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to write worker config"), "path", confPath)
	}

	pidFile := o.pidFile(port)
	os.Remove(pidFile)

	args := []string{"-c", confPath}
	if w.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, o.ExtraArgs...)
	args = append(args, "-f", pidFile)

	began := time.Now()
	launch, err := o.Spawner.Spawn(o.WorkerBinary, args, o.workDir())
	if err != nil {
		o.Metrics.WorkerFailures.WithLabelValues("spawn").Inc()
		return state.Record{}, err
	}

	pid, err := awaitIdentity(ctx, pidFile, o.ReadyTimeout, launch.Done)
	if err != nil {
		reason := "exited"
		if errors.GetKind(err) == errors.KindTimeout {
			reason = "timeout"
		}
		o.Metrics.WorkerFailures.WithLabelValues(reason).Inc()
		return state.Record{}, err
	}

	o.Metrics.ReadyLatency.Observe(time.Since(began).Seconds())
	o.Metrics.WorkersStarted.Inc()
	o.Logger.Info("worker started", "port", port, "pid", pid)
	return state.Record{Port: port, PID: pid}, nil
}

// StopResult summarizes one unload sweep.
type StopResult struct {
	Records  int
	Signaled int
	Failed   int
	Skipped  int
	Aborted  bool
}

// Stop signals the workers recorded for configPath and removes the map.
// A missing map is a missing-input error and nothing else happens.
func (o *Orchestrator) Stop(ctx context.Context, configPath string) (*StopResult, error) {
	pidmap := install.PidmapPath(configPath)
	table, err := state.Load(pidmap)
	if err != nil {
		return nil, err
	}

	if o.RotateLog && o.Rotator != nil {
		if err := o.Rotator.Rotate(ctx); err != nil {
			o.Logger.Warn("log rotation failed", errors.LogFields(err)...)
		}
	}

	var res *StopResult
	if o.SweepPolicy == config.SweepUniform {
		res = o.sweepUniform(table)
	} else {
		res = o.sweepCompat(table)
	}

	if err := state.Remove(pidmap); err != nil {
		return res, err
	}
	o.Metrics.FleetSize.Set(0)
	o.Logger.Info("fleet stopped", "config", configPath, "signaled", res.Signaled, "skipped", res.Skipped, "failed", res.Failed, "aborted", res.Aborted)
	return res, nil
}

// sweepCompat probes liveness until compatGoodThreshold signals have gone
// out, then signals every remaining record without probing. Running into
// compatFailLimit consecutive dead records before that ends the sweep.
func (o *Orchestrator) sweepCompat(table *state.Table) *StopResult {
	res := &StopResult{Records: table.Len()}
	goods, fails := 0, 0
	for _, r := range table.Records {
		if goods >= compatGoodThreshold || o.Processes.Alive(r.PIDNumber()) {
			o.signal(r, res)
			goods++
			fails = 0
			continue
		}

		fails++
		res.Skipped++
		o.Metrics.LivenessFailures.Inc()
		o.Logger.Warn("worker not running", "port", r.Port, "pid", r.PID)
		if fails >= compatFailLimit {
			res.Aborted = true
			o.Logger.Warn("too many dead workers, abandoning sweep", "remaining", table.Len()-res.Signaled-res.Failed-res.Skipped)
			break
		}
	}
	return res
}

// sweepUniform probes and signals every record and never stops early.
func (o *Orchestrator) sweepUniform(table *state.Table) *StopResult {
	res := &StopResult{Records: table.Len()}
	for _, r := range table.Records {
		if !o.Processes.Alive(r.PIDNumber()) {
			res.Skipped++
			o.Metrics.LivenessFailures.Inc()
			o.Logger.Warn("worker not running", "port", r.Port, "pid", r.PID)
			continue
		}
		o.signal(r, res)
	}
	return res
}

func (o *Orchestrator) signal(r state.Record, res *StopResult) {
	pid := r.PIDNumber()
	var err error
	if pid == 0 {
		err = errors.Attr(errors.New(errors.KindValidation, "recorded identity is not a process id"), "pid", r.PID)
	} else {
		err = o.Processes.Terminate(pid)
	}
	if err != nil {
		res.Failed++
		o.Metrics.Signals.WithLabelValues("failed").Inc()
		o.Logger.Warn("failed to signal worker", append(errors.LogFields(err), "port", r.Port)...)
		return
	}
	res.Signaled++
	o.Metrics.Signals.WithLabelValues("sent").Inc()
	o.Logger.Debug("signaled worker", "port", r.Port, "pid", r.PID)
}
