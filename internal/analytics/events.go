// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package analytics turns filtered worker log lines into connection events
// and ranks them by destination and by port.
package analytics

import (
	"fmt"
	"io"
	"strings"

	"grimm.is/yamato/internal/ingest"
	"grimm.is/yamato/internal/state"
)

// Kind classifies an event.
type Kind int

const (
	KindConnect Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ConnectMarker introduces the destination in a worker log line.
const ConnectMarker = "connect to "

// Event is one connection reconstructed from the log.
type Event struct {
	Time        string
	Port        string
	PID         string
	Destination string
	Kind        Kind
}

// FormatEvents correlates tagged log lines with the process table.
//
// The identity of a line is only re-resolved when it differs from the
// previous line's identity; consecutive lines of one worker reuse the
// previous match. Lines whose identity is not in the table are skipped.
func FormatEvents(table *state.Table, lines []string, tag string) []Event {
	var (
		events  []Event
		prevID  string
		prevRec state.Record
		prevOK  bool
		primed  bool
	)
	for _, line := range lines {
		id, ok := ingest.ExtractIdentity(line, tag)
		if !ok {
			continue
		}
		if !primed || id != prevID {
			prevRec, prevOK = table.ByPID(id)
			prevID = id
			primed = true
		}
		if !prevOK {
			continue
		}

		i := strings.Index(line, ConnectMarker)
		if i < 0 {
			continue
		}
		events = append(events, Event{
			Time:        eventTime(line, tag),
			Port:        prevRec.Port,
			PID:         prevRec.PID,
			Destination: strings.TrimSpace(line[i+len(ConnectMarker):]),
			Kind:        KindConnect,
		})
	}
	return events
}

// eventTime returns the text before the second-to-last space that precedes
// the tag, which strips the hostname from a syslog prefix.
func eventTime(line, tag string) string {
	p := strings.Index(line, tag)
	if p < 0 {
		return ""
	}
	prefix := line[:p]
	last := strings.LastIndexByte(prefix, ' ')
	if last < 0 {
		return ""
	}
	second := strings.LastIndexByte(prefix[:last], ' ')
	if second < 0 {
		return ""
	}
	return prefix[:second]
}

// WriteEventsTSV writes the export-log table.
func WriteEventsTSV(w io.Writer, events []Event) error {
	if _, err := io.WriteString(w, "Time\tPort\tPID\tDestination\n"); err != nil {
		return err
	}
	for _, e := range events {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Time, e.Port, e.PID, e.Destination); err != nil {
			return err
		}
	}
	return nil
}
