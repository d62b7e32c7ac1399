// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"bufio"
	"io"
	"os"

	"grimm.is/yamato/internal/analytics"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/session"
)

// RunExportLog writes every connection event to output.
func RunExportLog(sess *session.Session, configPath, output string) error {
	configPath, err := resolveConfig(configPath)
	if err != nil {
		return err
	}
	events, err := sess.Events(configPath)
	if err != nil {
		return err
	}
	if err := writeOutput(output, func(w io.Writer) error {
		return analytics.WriteEventsTSV(w, events)
	}); err != nil {
		return err
	}
	Printer.Printf("Exported %d event(s) to %s\n", len(events), output)
	return nil
}

// RunExportStat writes the ranked destination and port tables to output.
func RunExportStat(sess *session.Session, configPath, output string) error {
	configPath, err := resolveConfig(configPath)
	if err != nil {
		return err
	}
	stats, err := sess.Statistics(configPath)
	if err != nil {
		return err
	}
	if err := writeOutput(output, stats.WriteTSV); err != nil {
		return err
	}
	Printer.Printf("Exported statistics for %d event(s) to %s\n", stats.Events, output)
	return nil
}

// RunExportDB appends the run's events to the SQLite archive.
func RunExportDB(sess *session.Session, configPath, dbPath string) error {
	if dbPath == "" {
		return errors.New(errors.KindMissingInput, "export-db needs a database path (use -db)")
	}
	configPath, err := resolveConfig(configPath)
	if err != nil {
		return err
	}
	n, err := sess.Archive(configPath, dbPath)
	if err != nil {
		return err
	}
	Printer.Printf("Archived %d event(s) to %s (run %s)\n", n, dbPath, sess.ID)
	return nil
}

func writeOutput(path string, fill func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to create output"), "output", path)
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to write output"), "output", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to write output"), "output", path)
	}
	return f.Close()
}
