// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package state persists the port to process-identity map of a running fleet.
//
// The pidmap file is the only durable record of which workers are running.
// It is always replaced whole via a temporary file and rename so a
// concurrent status query never reads a torn map. Two simultaneous load or
// unload invocations against one configuration still race with each other;
// serializing them is the caller's job.
package state

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/errors"
)

// Record is one started worker.
type Record struct {
	Port string
	PID  string
}

// PIDNumber returns the identity as an int, or 0 if it is not numeric.
func (r Record) PIDNumber() int {
	n, err := strconv.Atoi(r.PID)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Table is the ordered record sequence for one configuration.
type Table struct {
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// ByPort returns the record for port. When a port appears more than once
// the later entry shadows the earlier one.
func (t *Table) ByPort(port string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	for i := len(t.Records) - 1; i >= 0; i-- {
		if t.Records[i].Port == port {
			return t.Records[i], true
		}
	}
	return Record{}, false
}

// ByPID returns the first record with the given identity.
func (t *Table) ByPID(pid string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	for _, r := range t.Records {
		if r.PID == pid {
			return r, true
		}
	}
	return Record{}, false
}

// Resolve looks arg up as a port first, then as an identity.
func (t *Table) Resolve(arg string) (Record, bool) {
	if r, ok := t.ByPort(arg); ok {
		return r, true
	}
	return t.ByPID(arg)
}

// Marshal renders the table in the on-disk "<port>: <pid>" format.
func (t *Table) Marshal() []byte {
	var buf bytes.Buffer
	for _, r := range t.Records {
		fmt.Fprintf(&buf, "%s: %s\n", r.Port, r.PID)
	}
	return buf.Bytes()
}

// Exists reports whether a pidmap is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads a pidmap. A missing file or one without records is a
// missing-input error.
func Load(path string) (*Table, error) {
	lines, err := config.ReadLines(path)
	if err != nil {
		return nil, errors.Attr(errors.Wrap(err, errors.KindMissingInput, "process map not found"), "pidmap", path)
	}

	t := &Table{}
	for _, raw := range lines {
		line, ok := config.SplitLine(raw)
		if !ok || line.Right == "" {
			continue
		}
		t.Records = append(t.Records, Record{Port: line.Left, PID: line.Right})
	}
	if len(t.Records) == 0 {
		return nil, errors.Attr(errors.New(errors.KindMissingInput, "process map is empty"), "pidmap", path)
	}
	return t, nil
}

// Save writes the table atomically: temp file in the same directory,
// fsync, then rename over path.
func Save(path string, t *Table) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "failed to create temporary process map")
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(t.Marshal()); err != nil {
		cleanup()
		return errors.Wrap(err, errors.KindInternal, "failed to write process map")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Wrap(err, errors.KindInternal, "failed to sync process map")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.KindInternal, "failed to close process map")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.KindInternal, "failed to set process map permissions")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to install process map"), "pidmap", path)
	}
	return nil
}

// Remove deletes the pidmap. A map that is already gone is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to remove process map"), "pidmap", path)
	}
	return nil
}
