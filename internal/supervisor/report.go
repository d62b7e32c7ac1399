// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/config"
	"grimm.is/yamato/internal/install"
	"grimm.is/yamato/internal/state"
)

const reportRule = "========================="

// Report describes one worker and what it logged.
type Report struct {
	Config  string
	Group   string
	Port    string
	PID     string
	Alive   bool
	Process string
	Lines   []string
}

// CheckPort looks arg up in the process map for configPath, first as a
// port and then as a process id, and collects the worker's log lines.
// When nothing matches it returns (nil, nil).
func (o *Orchestrator) CheckPort(ctx context.Context, configPath, arg string) (*Report, error) {
	table, err := state.Load(install.PidmapPath(configPath))
	if err != nil {
		return nil, err
	}

	rec, ok := table.Resolve(arg)
	if !ok {
		o.Logger.Debug("no worker matches", "query", arg, "config", configPath)
		return nil, nil
	}

	rep := &Report{Config: configPath, Port: rec.Port, PID: rec.PID}
	if parsed, err := config.ParseFile(configPath, config.Options{ResolveLocal: o.ResolveLocal, Logger: o.Logger}); err == nil {
		rep.Group = parsed.Group
	}
	if pid := rec.PIDNumber(); pid > 0 && o.Processes.Alive(pid) {
		rep.Alive = true
		rep.Process, _ = o.Processes.Name(pid)
	}

	if o.Log != nil {
		seq, err := o.Log.GetLog(rec.PID)
		if err != nil {
			return nil, err
		}
		for line := range seq {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rep.Lines = append(rep.Lines, line)
		}
	}
	return rep, nil
}

// WriteTo renders the report banner.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	fmt.Fprintf(cw, "%s information\n%s\n", brand.LowerName, reportRule)
	fmt.Fprintf(cw, "Configuration: %s\n", r.Config)
	if r.Group != "" {
		fmt.Fprintf(cw, "Group:         %s\n", r.Group)
	}
	fmt.Fprintf(cw, "Port:          %s\n", r.Port)
	fmt.Fprintf(cw, "PID:           %s\n", r.PID)
	status := "not running"
	if r.Alive {
		status = "running"
		if r.Process != "" {
			status += " (" + r.Process + ")"
		}
	}
	fmt.Fprintf(cw, "Status:        %s\n", status)
	fmt.Fprintf(cw, "\nLog from system about this user:\n\n")
	for _, line := range r.Lines {
		fmt.Fprintf(cw, "%s\n", line)
	}
	fmt.Fprintf(cw, "\n%s\n", reportRule)

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, bw.Flush()
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
