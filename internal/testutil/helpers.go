// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireShell skips the test unless /bin/sh can run scripts that stand in
// for a worker binary.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping test: requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("Skipping test: sh not found")
	}
	if os.Getenv("YAMATO_SKIP_PROCESS_TESTS") != "" {
		t.Skip("Skipping test: YAMATO_SKIP_PROCESS_TESTS is set")
	}
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FakeWorker installs a script that behaves like a daemonizing worker: it
// forks a long sleep, writes the child's pid to the file after -f, and
// exits 0.
func FakeWorker(t *testing.T, dir string) string {
	t.Helper()
	return WriteFile(t, dir, "fake-ss-server", `#!/bin/sh
pidfile=""
while [ $# -gt 0 ]; do
	case "$1" in
	-f) pidfile="$2"; shift ;;
	esac
	shift
done
sleep 30 &
echo $! > "$pidfile"
`, 0755)
}
