// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	ps "github.com/mitchellh/go-ps"

	"grimm.is/yamato/internal/errors"
)

// Launch is a spawned launcher. Done receives exactly one value when it
// exits.
type Launch struct {
	PID  int
	Done <-chan LaunchExit
}

// Spawner starts external processes.
type Spawner interface {
	Spawn(name string, args []string, dir string) (*Launch, error)
}

// ProcessController probes and signals processes by identity.
type ProcessController interface {
	Alive(pid int) bool
	Terminate(pid int) error
	Name(pid int) (string, bool)
}

// OSSpawner runs processes detached in their own session.
type OSSpawner struct{}

// Spawn starts name with args in dir without waiting for it.
func (OSSpawner) Spawn(name string, args []string, dir string) (*Launch, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to start worker"), "binary", name)
	}

	done := make(chan LaunchExit, 1)
	go func() {
		done <- exitFromWait(cmd.Wait())
	}()
	return &Launch{PID: cmd.Process.Pid, Done: done}, nil
}

// OSController talks to real processes.
type OSController struct{}

// Alive sends signal 0 to pid.
func (OSController) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Terminate sends SIGTERM to pid.
func (OSController) Terminate(pid int) error {
	if pid <= 0 {
		return errors.Errorf(errors.KindValidation, "refusing to signal pid %d", pid)
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, errors.KindNotFound, "process %d not found", pid)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return errors.Wrapf(err, errors.KindExternalProcess, "failed to signal process %d", pid)
	}
	return nil
}

// Name returns the executable name of pid from the process table.
func (OSController) Name(pid int) (string, bool) {
	p, err := ps.FindProcess(pid)
	if err != nil || p == nil {
		return "", false
	}
	return p.Executable(), true
}
