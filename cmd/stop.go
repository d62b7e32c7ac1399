// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"

	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/session"
)

// RunStop unloads the fleet in configPath.
func RunStop(ctx context.Context, sess *session.Session, configPath string) error {
	if configPath == "" {
		return errors.New(errors.KindMissingInput, "unload needs a configuration (use -i)")
	}

	res, err := sess.Orchestrator().Stop(ctx, configPath)
	if err != nil {
		return err
	}

	Printer.Printf("Stopped %d of %d worker(s)\n", res.Signaled, res.Records)
	if res.Skipped > 0 {
		Printer.Printf("%d worker(s) were not running\n", res.Skipped)
	}
	if res.Failed > 0 {
		Printer.Printf("%d worker(s) could not be signaled\n", res.Failed)
	}
	if res.Aborted {
		Printer.Println("Warning: sweep stopped early after repeated dead workers.")
	}
	return nil
}
