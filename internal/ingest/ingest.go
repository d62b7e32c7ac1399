// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ingest loads the system log and keeps only worker output.
package ingest

import (
	"bufio"
	"iter"
	"os"
	"strings"

	"grimm.is/yamato/internal/errors"
)

// Ingester filters one log source down to lines carrying Tag.
// The zero value is not usable; set Path and Tag.
type Ingester struct {
	Path string
	Tag  string

	loaded bool
	lines  []string
	total  int
}

// New returns an ingester for path that keeps lines mentioning tag.
func New(path, tag string) *Ingester {
	return &Ingester{Path: path, Tag: tag}
}

// UpdateLog reads the log source once. Later calls are no-ops, so every
// consumer in one run sees the same snapshot. An absent or empty source is
// a missing-input error.
func (in *Ingester) UpdateLog() error {
	if in.loaded {
		return nil
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindMissingInput, "cannot read log source"), "log", in.Path)
	}
	defer f.Close()

	var kept []string
	total := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		total++
		line := scanner.Text()
		if strings.Contains(line, in.Tag) {
			kept = append(kept, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to scan log source"), "log", in.Path)
	}
	if total == 0 {
		return errors.Attr(errors.New(errors.KindMissingInput, "log source is empty"), "log", in.Path)
	}

	in.lines = kept
	in.total = total
	in.loaded = true
	return nil
}

// Lines returns the retained lines. UpdateLog must have succeeded.
func (in *Ingester) Lines() []string {
	return in.lines
}

// Scanned returns how many raw lines the source had.
func (in *Ingester) Scanned() int {
	return in.total
}

// GetLog returns a lazy view of retained lines tagged "<tag>[<pid>]".
func (in *Ingester) GetLog(pid string) (iter.Seq[string], error) {
	if err := in.UpdateLog(); err != nil {
		return nil, err
	}
	needle := in.Tag + "[" + pid + "]"
	return func(yield func(string) bool) {
		for _, line := range in.lines {
			if !strings.Contains(line, needle) {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}, nil
}

// ExtractIdentity returns the text between "<tag>[" and the next "]".
func ExtractIdentity(line, tag string) (string, bool) {
	start := strings.Index(line, tag+"[")
	if start < 0 {
		return "", false
	}
	rest := line[start+len(tag)+1:]
	end := strings.IndexByte(rest, ']')
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}
