// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package supervisor starts and stops a fleet of worker processes and keeps
// the persisted process map in step with them.
//
// Workers are detached from this process and outlive it. One invocation
// handles one configuration at a time; concurrent load or unload runs
// against the same configuration race on the shared worker config file and
// must be serialized by the caller.
package supervisor

import (
	"os/exec"
	"syscall"
)

// LaunchExit records how a spawned launcher process ended.
// A worker that daemonizes exits cleanly right after forking, so a clean
// exit does not mean the worker is gone.
type LaunchExit struct {
	ExitCode int
	Signal   syscall.Signal
	Err      error
}

// IsFailure returns true if the launcher died instead of handing off to
// the daemonized worker.
func (e LaunchExit) IsFailure() bool {
	// Fatal signals are failures
	if e.Signal != 0 {
		return true
	}
	if e.ExitCode != 0 {
		return true
	}
	// Wait itself failed without an exit status
	return e.Err != nil
}

// exitFromWait converts the result of cmd.Wait into a LaunchExit.
func exitFromWait(err error) LaunchExit {
	if err == nil {
		return LaunchExit{}
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return LaunchExit{ExitCode: -1, Err: err}
	}
	ev := LaunchExit{ExitCode: exitErr.ExitCode(), Err: err}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		ev.Signal = status.Signal()
	}
	return ev
}
