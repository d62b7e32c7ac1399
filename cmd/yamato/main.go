// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command yamato loads, unloads and reports on a fleet of ss-server workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/yamato/cmd"
	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	inv := &cmd.Invocation{}
	fs := newFlagSet(inv)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, inv); err != nil {
		logging.Debug("command failed", errors.LogFields(err)...)
		cmd.Printer.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newFlagSet(inv *cmd.Invocation) *flag.FlagSet {
	fs := flag.NewFlagSet(brand.BinaryName, flag.ContinueOnError)

	alias := func(p *string, short, long, value, usage string) {
		fs.StringVar(p, short, value, usage)
		fs.StringVar(p, long, value, "alias for -"+short)
	}
	alias(&inv.Config, "i", "input", "", "fleet configuration file")
	alias(&inv.Action, "a", "action", "", "status | load | unload | export-log (el) | export-stat (es) | export-db")
	alias(&inv.Extra, "e", "extra-parameter", "", "extra arguments passed to every worker")
	alias(&inv.Output, "o", "output", brand.DefaultOutput, "export output file")
	alias(&inv.LogInput, "li", "log-input", "", "log file to read instead of the system log")
	alias(&inv.Port, "p", "port", "", "port or PID to report on (status)")
	fs.StringVar(&inv.SettingsPath, "settings", "", "settings file (.hcl, .toml, .yaml)")
	fs.StringVar(&inv.DBPath, "db", "", "SQLite archive for export-db")
	fs.BoolVar(&inv.Debug, "debug", false, "enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "%s\n\nUsage: %s -a <action> [options]\n\n", brand.Banner(), brand.BinaryName)
		fs.PrintDefaults()
	}
	return fs
}
