// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yerrors "grimm.is/yamato/internal/errors"
)

func TestSyslogRotator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syslog")
	require.NoError(t, os.WriteFile(path, []byte("old noise\n"), 0644))

	var ran []string
	r := &SyslogRotator{
		Path:           path,
		RestartCommand: []string{"service", "rsyslog", "restart"},
		Run: func(ctx context.Context, name string, args ...string) error {
			ran = append([]string{name}, args...)
			return nil
		},
	}
	require.NoError(t, r.Rotate(context.Background()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, []string{"service", "rsyslog", "restart"}, ran)
}

func TestSyslogRotator_RestartFails(t *testing.T) {
	r := &SyslogRotator{
		Path:           filepath.Join(t.TempDir(), "syslog"),
		RestartCommand: []string{"false"},
		Run: func(ctx context.Context, name string, args ...string) error {
			return errors.New("exit status 1")
		},
	}
	err := r.Rotate(context.Background())
	require.Error(t, err)
	assert.Equal(t, yerrors.KindExternalProcess, yerrors.GetKind(err))
}
