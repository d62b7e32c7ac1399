// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/state"
)

const threeWorkers = `group: lab
server: 0.0.0.0
method: aes-256-gcm
verbose: true
users:
  alice: 8001
  bob: 8002
  carol: 8003
`

func TestStart_PersistsOneRecordPerWorker(t *testing.T) {
	h := newHarness(t, threeWorkers)
	h.orch.ExtraArgs = []string{"-u"}

	records, err := h.orch.Start(context.Background(), h.config)
	require.NoError(t, err)
	require.Len(t, records, 3)

	table, err := state.Load(h.pidmap())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	ports := map[string]bool{}
	for _, r := range table.Records {
		ports[r.Port] = true
		assert.NotZero(t, r.PIDNumber())
	}
	assert.Equal(t, map[string]bool{"8001": true, "8002": true, "8003": true}, ports)

	require.Len(t, h.spawner.calls, 3)
	first := h.spawner.calls[0]
	assert.Equal(t, "ss-server", first.Name)
	assert.Equal(t, []string{
		"-c", filepath.Join(h.dir, "SS.conf"),
		"-v",
		"-u",
		"-f", filepath.Join(h.dir, "8001.pid"),
	}, first.Args)
	assert.Contains(t, h.spawner.configs[1], `"password": "bob"`)

	_, err = os.Stat(filepath.Join(h.dir, "SS.conf"))
	assert.True(t, os.IsNotExist(err), "transient worker config is removed")
	for _, port := range []string{"8001", "8002", "8003"} {
		_, err = os.Stat(filepath.Join(h.dir, port+".pid"))
		assert.True(t, os.IsNotExist(err), "identity file %s is removed", port)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(h.orch.Metrics.WorkersStarted))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.orch.Metrics.FleetSize))
}

func TestStartStop_RemovesPidmap(t *testing.T) {
	h := newHarness(t, threeWorkers)
	records, err := h.orch.Start(context.Background(), h.config)
	require.NoError(t, err)
	for _, r := range records {
		h.procs.alive[r.PIDNumber()] = true
	}

	res, err := h.orch.Stop(context.Background(), h.config)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Signaled)
	assert.False(t, state.Exists(h.pidmap()))
	assert.Equal(t, 1, h.rotator.calls)
	assert.Len(t, h.procs.terminated, 3)
}

func TestStop_MissingPidmapHasNoSideEffects(t *testing.T) {
	h := newHarness(t, threeWorkers)

	_, err := h.orch.Stop(context.Background(), h.config)
	require.Error(t, err)
	assert.Equal(t, errors.KindMissingInput, errors.GetKind(err))
	assert.Zero(t, h.rotator.calls)
	assert.Empty(t, h.procs.terminated)
}

func TestStart_ReloadStopsFirst(t *testing.T) {
	h := newHarness(t, threeWorkers)
	require.NoError(t, state.Save(h.pidmap(), &state.Table{Records: []state.Record{{Port: "8001", PID: "77"}}}))
	h.procs.alive[77] = true

	_, err := h.orch.Start(context.Background(), h.config)
	require.NoError(t, err)
	assert.Equal(t, []int{77}, h.procs.terminated)

	table, err := state.Load(h.pidmap())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestStart_ReplacesUnreadablePidmap(t *testing.T) {
	for name, content := range map[string]string{
		"blank":     "\n",
		"malformed": "not a record\n:\n",
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, threeWorkers)
			require.NoError(t, os.WriteFile(h.pidmap(), []byte(content), 0644))

			records, err := h.orch.Start(context.Background(), h.config)
			require.NoError(t, err)
			assert.Len(t, records, 3)
			assert.Len(t, h.spawner.calls, 3)
			assert.Empty(t, h.procs.terminated)

			table, err := state.Load(h.pidmap())
			require.NoError(t, err)
			assert.Equal(t, 3, table.Len())
		})
	}
}

func TestStart_UnreadableWorkerSettingIsSkipped(t *testing.T) {
	h := newHarness(t, "timeout: soon\nfastopen: yes\n  alice: 8001\n")

	records, err := h.orch.Start(context.Background(), h.config)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, h.spawner.configs, 1)
	assert.NotContains(t, h.spawner.configs[0], `"timeout"`)
	assert.Contains(t, h.spawner.configs[0], `"fast_open": true`)
}

func TestStart_FailureKeepsStartedWorkers(t *testing.T) {
	h := newHarness(t, threeWorkers)
	h.spawner.fail["8002"] = true

	records, err := h.orch.Start(context.Background(), h.config)
	require.Error(t, err)
	assert.Equal(t, errors.KindExternalProcess, errors.GetKind(err))
	assert.Equal(t, "8002", errors.GetAttributes(err)["port"])
	require.Len(t, records, 1)

	table, err := state.Load(h.pidmap())
	require.NoError(t, err)
	assert.Equal(t, []state.Record{records[0]}, table.Records)
	assert.Len(t, h.spawner.calls, 2, "no worker is started after a failure")
}

func TestStart_Timeout(t *testing.T) {
	h := newHarness(t, "  alice: 8001\n")
	h.spawner.silent["8001"] = true

	_, err := h.orch.Start(context.Background(), h.config)
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.GetKind(err))
	assert.False(t, state.Exists(h.pidmap()), "nothing started, nothing persisted")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.orch.Metrics.WorkerFailures.WithLabelValues("timeout")))
}

func TestStart_NoWorkers(t *testing.T) {
	h := newHarness(t, "method: aes-256-gcm\n")
	_, err := h.orch.Start(context.Background(), h.config)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestStart_MissingConfig(t *testing.T) {
	h := newHarness(t, threeWorkers)
	_, err := h.orch.Start(context.Background(), filepath.Join(h.dir, "nope.conf"))
	require.Error(t, err)
	assert.Equal(t, errors.KindMissingInput, errors.GetKind(err))
}

func savedTable(t *testing.T, h *harness, n int) {
	t.Helper()
	table := &state.Table{}
	for i := 1; i <= n; i++ {
		table.Records = append(table.Records, state.Record{Port: fmt.Sprint(8000 + i), PID: fmt.Sprint(i)})
	}
	require.NoError(t, state.Save(h.pidmap(), table))
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		alive    []int
		records  int
		want     StopResult
		signaled []int
	}{
		{
			name:     "compat stops probing after three signals",
			policy:   config.SweepCompat,
			alive:    []int{1, 2, 3},
			records:  6,
			want:     StopResult{Records: 6, Signaled: 6},
			signaled: []int{1, 2, 3, 4, 5, 6},
		},
		{
			name:    "compat aborts on five consecutive dead",
			policy:  config.SweepCompat,
			records: 7,
			want:    StopResult{Records: 7, Skipped: 5, Aborted: true},
		},
		{
			name:     "compat resets the failure run on a live worker",
			policy:   config.SweepCompat,
			alive:    []int{2},
			records:  6,
			want:     StopResult{Records: 6, Signaled: 1, Skipped: 5},
			signaled: []int{2},
		},
		{
			name:    "uniform never aborts",
			policy:  config.SweepUniform,
			records: 7,
			want:    StopResult{Records: 7, Skipped: 7},
		},
		{
			name:     "uniform probes every record",
			policy:   config.SweepUniform,
			alive:    []int{1, 2, 3, 6},
			records:  6,
			want:     StopResult{Records: 6, Signaled: 4, Skipped: 2},
			signaled: []int{1, 2, 3, 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, threeWorkers)
			h.orch.SweepPolicy = tt.policy
			for _, pid := range tt.alive {
				h.procs.alive[pid] = true
			}
			savedTable(t, h, tt.records)

			res, err := h.orch.Stop(context.Background(), h.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *res)
			assert.Equal(t, tt.signaled, h.procs.terminated)
			assert.False(t, state.Exists(h.pidmap()), "map is removed regardless of outcome")
		})
	}
}

func TestSweep_NonNumericIdentityIsNotSignaled(t *testing.T) {
	h := newHarness(t, threeWorkers)
	h.procs.alive[1] = true
	h.procs.alive[2] = true
	h.procs.alive[3] = true
	require.NoError(t, state.Save(h.pidmap(), &state.Table{Records: []state.Record{
		{Port: "8001", PID: "1"}, {Port: "8002", PID: "2"}, {Port: "8003", PID: "3"}, {Port: "8004", PID: "garbage"},
	}}))

	res, err := h.orch.Stop(context.Background(), h.config)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Signaled)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []int{1, 2, 3}, h.procs.terminated)
}

func TestCheckPort(t *testing.T) {
	h := newHarness(t, threeWorkers)
	require.NoError(t, state.Save(h.pidmap(), &state.Table{Records: []state.Record{
		{Port: "8001", PID: "123"}, {Port: "8002", PID: "456"},
	}}))
	h.procs.alive[123] = true
	h.orch.Log = fakeLog{"123": {"Jan 1 00:00:00 host ss-server[123]: connect to example.com:443"}}

	rep, err := h.orch.CheckPort(context.Background(), h.config, "8001")
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, "123", rep.PID)
	assert.Equal(t, "lab", rep.Group)
	assert.True(t, rep.Alive)
	assert.Equal(t, "ss-server", rep.Process)
	assert.Len(t, rep.Lines, 1)

	rep, err = h.orch.CheckPort(context.Background(), h.config, "456")
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, "8002", rep.Port)
	assert.False(t, rep.Alive)
	assert.Empty(t, rep.Lines)
}

func TestCheckPort_NoMatchIsSilent(t *testing.T) {
	h := newHarness(t, threeWorkers)
	savedTable(t, h, 2)

	rep, err := h.orch.CheckPort(context.Background(), h.config, "9999")
	assert.NoError(t, err)
	assert.Nil(t, rep)
}

func TestCheckPort_MissingPidmap(t *testing.T) {
	h := newHarness(t, threeWorkers)
	_, err := h.orch.CheckPort(context.Background(), h.config, "8001")
	require.Error(t, err)
	assert.Equal(t, errors.KindMissingInput, errors.GetKind(err))
}

func TestReportWriteTo(t *testing.T) {
	rep := &Report{
		Config:  "fleet.conf",
		Port:    "8001",
		PID:     "123",
		Alive:   true,
		Process: "ss-server",
		Lines:   []string{"line one", "line two"},
	}
	var sb strings.Builder
	n, err := rep.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)
	assert.Equal(t, `yamato information
=========================
Configuration: fleet.conf
Port:          8001
PID:           123
Status:        running (ss-server)

Log from system about this user:

line one
line two

=========================
`, sb.String())
}
