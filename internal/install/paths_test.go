// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSyslogPath_EnvOverride(t *testing.T) {
	t.Setenv("YAMATO_SYSLOG", "/tmp/custom.log")
	assert.Equal(t, "/tmp/custom.log", GetSyslogPath())
}

func TestGetSyslogPath_Default(t *testing.T) {
	t.Setenv("YAMATO_SYSLOG", "")
	assert.Equal(t, "/var/log/syslog", GetSyslogPath())
}

func TestGetRunDir(t *testing.T) {
	t.Setenv("YAMATO_RUN_DIR", "")
	assert.Equal(t, ".", GetRunDir())

	t.Setenv("YAMATO_RUN_DIR", "/run/yamato")
	assert.Equal(t, "/run/yamato", GetRunDir())
}

func TestPidmapPath(t *testing.T) {
	assert.Equal(t, "fleet.conf.pidmap", PidmapPath("fleet.conf"))
	assert.Equal(t, "/etc/ss/users.pidmap", PidmapPath("/etc/ss/users"))
}

func TestFindPidmap(t *testing.T) {
	dir := t.TempDir()

	_, ok := FindPidmap(dir)
	assert.False(t, ok, "empty dir has no pidmap")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fleet.conf.pidmap"), []byte("8001: 1\n"), 0644))

	cfg, ok := FindPidmap(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "fleet.conf"), cfg)
}
