// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yerrors "grimm.is/yamato/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"YAMATO_WORKER_BINARY", "YAMATO_SYSLOG", "YAMATO_RUN_DIR", "YAMATO_METRICS_FILE"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettings_Defaults(t *testing.T) {
	clearEnv(t)
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "ss-server", s.WorkerBinary)
	assert.Equal(t, "/var/log/syslog", s.SyslogPath)
	assert.Equal(t, SweepCompat, s.SweepPolicy)
	assert.Equal(t, DefaultReadyTimeout, s.ReadyTimeoutDuration())
	assert.True(t, s.ShouldRotate())
	assert.Equal(t, []string{"service", "rsyslog", "restart"}, s.RestartCommand)
}

func TestLoadSettings_Formats(t *testing.T) {
	clearEnv(t)
	files := map[string]string{
		"settings.hcl": `
worker_binary = "/usr/local/bin/ss-server"
extra_args    = ["-u", "--plugin", "obfs-server"]
ready_timeout = "2s"
rotate_log    = false
sweep_policy  = "uniform"
`,
		"settings.toml": `
worker_binary = "/usr/local/bin/ss-server"
extra_args    = ["-u", "--plugin", "obfs-server"]
ready_timeout = "2s"
rotate_log    = false
sweep_policy  = "uniform"
`,
		"settings.yaml": `
worker_binary: /usr/local/bin/ss-server
extra_args: ["-u", "--plugin", "obfs-server"]
ready_timeout: 2s
rotate_log: false
sweep_policy: uniform
`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			s, err := LoadSettings(writeFile(t, name, content))
			require.NoError(t, err)

			assert.Equal(t, "/usr/local/bin/ss-server", s.WorkerBinary)
			assert.Equal(t, []string{"-u", "--plugin", "obfs-server"}, s.ExtraArgs)
			assert.Equal(t, 2*time.Second, s.ReadyTimeoutDuration())
			assert.False(t, s.ShouldRotate())
			assert.Equal(t, SweepUniform, s.SweepPolicy)
			assert.Equal(t, "/var/log/syslog", s.SyslogPath, "unset fields keep defaults")
		})
	}
}

func TestLoadSettings_EnvWins(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "settings.hcl", `syslog_path = "/var/log/messages"`+"\n")
	t.Setenv("YAMATO_SYSLOG", "/tmp/test.log")
	t.Setenv("YAMATO_RUN_DIR", "/tmp/run")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.log", s.SyslogPath)
	assert.Equal(t, "/tmp/run", s.WorkDir)
}

func TestLoadSettings_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadSettings(filepath.Join(t.TempDir(), "none.hcl"))
	require.Error(t, err)
	assert.Equal(t, yerrors.KindMissingInput, yerrors.GetKind(err))

	_, err = LoadSettings(writeFile(t, "bad.hcl", `ready_timeout = "-1s"`+"\n"))
	require.Error(t, err)
	assert.Equal(t, yerrors.KindValidation, yerrors.GetKind(err))

	_, err = LoadSettings(writeFile(t, "bad.toml", `sweep_policy = "random"`+"\n"))
	require.Error(t, err)
	assert.Equal(t, yerrors.KindValidation, yerrors.GetKind(err))

	_, err = LoadSettings(writeFile(t, "broken.hcl", "worker_binary = \n"))
	require.Error(t, err)
}
