// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"

	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/session"
)

// RunStart loads the fleet in configPath.
func RunStart(ctx context.Context, sess *session.Session, configPath string) error {
	if configPath == "" {
		return errors.New(errors.KindMissingInput, "load needs a configuration (use -i)")
	}

	records, err := sess.Orchestrator().Start(ctx, configPath)
	for _, r := range records {
		Printer.Printf("Started worker on port %s (PID: %s)\n", r.Port, r.PID)
	}
	if err != nil {
		if len(records) > 0 {
			Printer.Printf("%d worker(s) recorded; run unload to stop them.\n", len(records))
		}
		return err
	}
	Printer.Printf("Loaded %d worker(s) from %s\n", len(records), configPath)
	return nil
}
