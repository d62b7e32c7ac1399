// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"io"
	"log/syslog"
	"net"
	"strconv"

	"grimm.is/yamato/internal/brand"
	"grimm.is/yamato/internal/errors"
)

// SyslogConfig describes a remote syslog collector for the manager's own
// log records. It is unrelated to the local system log the scanner reads.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns a disabled UDP/514 config tagged with the brand.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      brand.LowerName,
		Facility: 1,
	}
}

// SyslogFromAddress returns an enabled config for a "host" or "host:port"
// collector address. An empty address yields the disabled default.
func SyslogFromAddress(addr string) SyslogConfig {
	cfg := DefaultSyslogConfig()
	if addr == "" {
		return cfg
	}
	cfg.Enabled = true
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		cfg.Host = addr
		return cfg
	}
	cfg.Host = host
	if n, err := strconv.Atoi(port); err == nil && n > 0 {
		cfg.Port = n
	}
	return cfg
}

// NewSyslogWriter dials the collector described by cfg.
func NewSyslogWriter(cfg SyslogConfig) (io.Writer, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.KindValidation, "syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = brand.LowerName
	}

	priority := syslog.Priority(cfg.Facility<<3) | syslog.LOG_INFO
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	w, err := syslog.Dial(cfg.Protocol, addr, priority, cfg.Tag)
	if err != nil {
		return nil, errors.Attr(errors.Wrap(err, errors.KindExternalProcess, "failed to dial syslog collector"), "addr", cfg.Protocol+"/"+addr)
	}
	return w, nil
}
