// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"grimm.is/yamato/internal/errors"
)

const pollInterval = 50 * time.Millisecond

// readIdentity returns the trimmed contents of path and whether they form a
// positive process id.
func readIdentity(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	n, err := strconv.Atoi(id)
	return id, err == nil && n > 0
}

// awaitIdentity blocks until the worker writes a numeric id to path. A
// failed launcher or an expired timeout ends the wait with an error. File
// events wake the wait early; polling covers filesystems without watches.
func awaitIdentity(ctx context.Context, path string, timeout time.Duration, done <-chan LaunchExit) (string, error) {
	last, ok := readIdentity(path)
	if ok {
		return last, nil
	}

	var events <-chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(filepath.Dir(path)); err == nil {
			events = w.Events
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
		case <-ticker.C:
		case exit, ok := <-done:
			if !ok {
				done = nil
				continue
			}
			done = nil
			if exit.IsFailure() {
				// The worker may have written its id before the launcher died.
				if id, ok := readIdentity(path); ok {
					return id, nil
				}
				err := errors.New(errors.KindExternalProcess, "worker exited during startup")
				if exit.Err != nil {
					err = errors.Wrap(exit.Err, errors.KindExternalProcess, "worker exited during startup")
				}
				return "", errors.Attr(err, "exit_code", exit.ExitCode)
			}
		case <-deadline.C:
			if last != "" {
				return "", errors.Attr(errors.New(errors.KindExternalProcess, "worker wrote a malformed identity"), "identity", last)
			}
			return "", errors.Attr(errors.Errorf(errors.KindTimeout, "worker did not report an identity within %s", timeout), "pid_file", path)
		case <-ctx.Done():
			return "", errors.Wrap(ctx.Err(), errors.KindTimeout, "interrupted while waiting for worker")
		}

		id, ok := readIdentity(path)
		if ok {
			return id, nil
		}
		if id != "" {
			last = id
		}
	}
}
