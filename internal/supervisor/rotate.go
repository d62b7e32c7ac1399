// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"os"
	"os/exec"

	"grimm.is/yamato/internal/errors"
)

// Rotator clears the system log before workers are stopped so later status
// queries see only fresh output.
type Rotator interface {
	Rotate(ctx context.Context) error
}

// CommandRunner runs an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// SyslogRotator removes and recreates the log file, then restarts the
// logging service so it reopens it.
type SyslogRotator struct {
	Path           string
	RestartCommand []string
	Run            CommandRunner
}

// Rotate truncates the log by replacing the file.
func (r *SyslogRotator) Rotate(ctx context.Context) error {
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to remove system log"), "log", r.Path)
	}
	f, err := os.OpenFile(r.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to recreate system log"), "log", r.Path)
	}
	f.Close()
	// OpenFile is subject to umask
	if err := os.Chmod(r.Path, 0755); err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to set system log permissions"), "log", r.Path)
	}

	if len(r.RestartCommand) == 0 {
		return nil
	}
	run := r.Run
	if run == nil {
		run = runCommand
	}
	if err := run(ctx, r.RestartCommand[0], r.RestartCommand[1:]...); err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to restart logging service"), "command", r.RestartCommand)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
