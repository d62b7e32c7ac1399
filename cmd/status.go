// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"
	"io"

	"grimm.is/yamato/internal/session"
)

// RunStatus prints the report for one worker, or the fleet table when no
// port is given. An unknown port prints nothing.
func RunStatus(ctx context.Context, sess *session.Session, configPath, port string, w io.Writer) error {
	configPath, err := resolveConfig(configPath)
	if err != nil {
		return err
	}

	if port == "" {
		return printFleet(sess, configPath, w)
	}

	rep, err := sess.Orchestrator().CheckPort(ctx, configPath, port)
	if err != nil || rep == nil {
		return err
	}
	_, err = rep.WriteTo(w)
	return err
}

func printFleet(sess *session.Session, configPath string, w io.Writer) error {
	table, err := sess.Table(configPath)
	if err != nil {
		return err
	}
	procs := sess.Orchestrator().Processes

	Printer.Fprintf(w, "Configuration: %s\n", configPath)
	Printer.Fprintf(w, "Port\tPID\tStatus\n")
	for _, r := range table.Records {
		status := "stopped"
		if procs.Alive(r.PIDNumber()) {
			status = "running"
		}
		Printer.Fprintf(w, "%s\t%s\t%s\n", r.Port, r.PID, status)
	}
	return nil
}
