// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"
	"io"
	"os"

	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/install"
	"grimm.is/yamato/internal/logging"
	"grimm.is/yamato/internal/session"
)

// Actions accepted by Run.
const (
	ActionStatus     = "status"
	ActionLoad       = "load"
	ActionUnload     = "unload"
	ActionExportLog  = "export-log"
	ActionExportStat = "export-stat"
	ActionExportDB   = "export-db"
)

var actionAliases = map[string]string{
	"el": ActionExportLog,
	"es": ActionExportStat,
}

// NormalizeAction resolves short aliases.
func NormalizeAction(a string) string {
	if full, ok := actionAliases[a]; ok {
		return full
	}
	return a
}

// Invocation is everything the command line selected.
type Invocation struct {
	Action       string
	Config       string
	Port         string
	Extra        string
	Output       string
	LogInput     string
	SettingsPath string
	DBPath       string
	Debug        bool

	// Stdout receives reports; nil means os.Stdout.
	Stdout io.Writer
}

func (inv *Invocation) stdout() io.Writer {
	if inv.Stdout == nil {
		return os.Stdout
	}
	return inv.Stdout
}

// OpenSession loads settings and builds the session for inv.
func OpenSession(inv *Invocation) (*session.Session, error) {
	path := inv.SettingsPath
	if path == "" {
		path = install.GetSettingsPath()
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if inv.Debug {
		settings.LogLevel = "debug"
	}

	logger := session.NewLogger(settings)
	logging.SetDefault(logger)

	sess := session.New(settings, logger)
	sess.LogInput = inv.LogInput
	sess.ExtraArgs = splitExtra(inv.Extra)
	return sess, nil
}

// Run executes inv.Action.
func Run(ctx context.Context, inv *Invocation) error {
	action := NormalizeAction(inv.Action)
	switch action {
	case ActionStatus, ActionLoad, ActionUnload, ActionExportLog, ActionExportStat, ActionExportDB:
	case "":
		return errors.New(errors.KindMissingInput, "no action given (use -a)")
	default:
		return errors.Attr(errors.New(errors.KindValidation, "unknown action"), "action", inv.Action)
	}

	sess, err := OpenSession(inv)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logging.Warn("failed to write metrics", errors.LogFields(err)...)
		}
	}()

	switch action {
	case ActionLoad:
		return RunStart(ctx, sess, inv.Config)
	case ActionUnload:
		return RunStop(ctx, sess, inv.Config)
	case ActionStatus:
		return RunStatus(ctx, sess, inv.Config, inv.Port, inv.stdout())
	case ActionExportLog:
		return RunExportLog(sess, inv.Config, outputPath(inv))
	case ActionExportStat:
		return RunExportStat(sess, inv.Config, outputPath(inv))
	default:
		return RunExportDB(sess, inv.Config, inv.DBPath)
	}
}

func outputPath(inv *Invocation) string {
	if inv.Output == "" {
		return brand.DefaultOutput
	}
	return inv.Output
}

// resolveConfig returns configPath, or the configuration of the first
// process map in the run directory when configPath is empty.
func resolveConfig(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if found, ok := install.FindPidmap(install.GetRunDir()); ok {
		return found, nil
	}
	return "", errors.New(errors.KindMissingInput, "no configuration given and no process map found")
}
