// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/logging"
	"grimm.is/yamato/internal/metrics"
)

type spawnCall struct {
	Name string
	Args []string
}

// fakeSpawner writes a pid file for each spawn unless the port is listed
// in fail (launcher exits 1) or silent (nothing ever happens).
type fakeSpawner struct {
	mu      sync.Mutex
	nextPID int
	calls   []spawnCall
	configs []string
	fail    map[string]bool
	silent  map[string]bool
}

func (f *fakeSpawner) Spawn(name string, args []string, dir string) (*Launch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, spawnCall{Name: name, Args: slices.Clone(args)})
	if i := slices.Index(args, "-c"); i >= 0 {
		data, _ := os.ReadFile(args[i+1])
		f.configs = append(f.configs, string(data))
	}

	pidFile := args[slices.Index(args, "-f")+1]
	port := strings.TrimSuffix(filepath.Base(pidFile), ".pid")

	done := make(chan LaunchExit, 1)
	switch {
	case f.fail[port]:
		done <- LaunchExit{ExitCode: 1}
	case f.silent[port]:
	default:
		if f.nextPID == 0 {
			f.nextPID = 1000
		}
		f.nextPID++
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(f.nextPID)+"\n"), 0644); err != nil {
			return nil, err
		}
		done <- LaunchExit{}
	}
	return &Launch{PID: f.nextPID, Done: done}, nil
}

type fakeProcesses struct {
	alive      map[int]bool
	terminated []int
}

func (f *fakeProcesses) Alive(pid int) bool { return f.alive[pid] }

func (f *fakeProcesses) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	return nil
}

func (f *fakeProcesses) Name(pid int) (string, bool) {
	if f.alive[pid] {
		return "ss-server", true
	}
	return "", false
}

type fakeRotator struct{ calls int }

func (f *fakeRotator) Rotate(ctx context.Context) error {
	f.calls++
	return nil
}

type fakeLog map[string][]string

func (f fakeLog) GetLog(pid string) (iter.Seq[string], error) {
	return slices.Values(f[pid]), nil
}

type harness struct {
	dir     string
	config  string
	orch    *Orchestrator
	spawner *fakeSpawner
	procs   *fakeProcesses
	rotator *fakeRotator
}

func newHarness(t *testing.T, fleet string) *harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.conf")
	require.NoError(t, os.WriteFile(path, []byte(fleet), 0644))

	h := &harness{
		dir:     dir,
		config:  path,
		spawner: &fakeSpawner{fail: map[string]bool{}, silent: map[string]bool{}},
		procs:   &fakeProcesses{alive: map[int]bool{}},
		rotator: &fakeRotator{},
	}
	h.orch = &Orchestrator{
		Options: Options{
			WorkerBinary: "ss-server",
			WorkDir:      dir,
			ReadyTimeout: 200 * time.Millisecond,
			SweepPolicy:  config.SweepCompat,
			RotateLog:    true,
		},
		Spawner:   h.spawner,
		Processes: h.procs,
		Rotator:   h.rotator,
		Logger:    logging.Discard(),
		Metrics:   metrics.New(),
	}
	return h
}

func (h *harness) pidmap() string {
	return h.config + ".pidmap"
}
