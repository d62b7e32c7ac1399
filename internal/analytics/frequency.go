// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package analytics

import (
	"fmt"
	"io"
)

// FrequencyEntry is one distinct key and how often it occurred.
type FrequencyEntry struct {
	Key   string
	Count int
}

// Tally counts keys and remembers the order in which they were first seen.
type Tally struct {
	keys   []string
	counts []int
	index  map[string]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{index: make(map[string]int)}
}

// Add counts one occurrence of key.
func (t *Tally) Add(key string) {
	if i, ok := t.index[key]; ok {
		t.counts[i]++
		return
	}
	t.index[key] = len(t.keys)
	t.keys = append(t.keys, key)
	t.counts = append(t.counts, 1)
}

// Len returns the number of distinct keys.
func (t *Tally) Len() int { return len(t.keys) }

// Ranked returns the entries ordered by count, highest first.
func (t *Tally) Ranked() []FrequencyEntry {
	perm := RankSort(t.counts)
	out := make([]FrequencyEntry, 0, len(perm))
	for i := len(perm) - 1; i >= 0; i-- {
		j := perm[i]
		out = append(out, FrequencyEntry{Key: t.keys[j], Count: t.counts[j]})
	}
	return out
}

// Statistics holds both ranked tables for one run.
type Statistics struct {
	Destinations []FrequencyEntry
	Ports        []FrequencyEntry
	Events       int
}

// Compute ranks events by destination and by port.
func Compute(events []Event) Statistics {
	dest := NewTally()
	ports := NewTally()
	for _, e := range events {
		dest.Add(e.Destination)
		ports.Add(e.Port)
	}
	return Statistics{
		Destinations: dest.Ranked(),
		Ports:        ports.Ranked(),
		Events:       len(events),
	}
}

// WriteTSV writes the export-stat report: the destination table, a blank
// line, then the port table.
func (s Statistics) WriteTSV(w io.Writer) error {
	if err := writeTable(w, "Website", s.Destinations); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return writeTable(w, "User Port", s.Ports)
}

func writeTable(w io.Writer, title string, entries []FrequencyEntry) error {
	if _, err := fmt.Fprintf(w, "%s\tInquiry Count\n", title); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", e.Key, e.Count); err != nil {
			return err
		}
	}
	return nil
}
