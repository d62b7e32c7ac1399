// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netutil finds the address a local resolver would listen on.
package netutil

import (
	"net"

	"grimm.is/yamato/internal/errors"
)

// Candidate is one address seen on a host interface.
type Candidate struct {
	Iface string
	IP    net.IP
	Up    bool
}

// PickAddress returns the first usable IPv4 address from candidates.
// Loopback, link-local, unspecified and down-interface addresses are skipped.
func PickAddress(candidates []Candidate) (string, error) {
	for _, c := range candidates {
		if !c.Up || c.IP == nil {
			continue
		}
		ip4 := c.IP.To4()
		if ip4 == nil {
			continue
		}
		if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.IsUnspecified() {
			continue
		}
		return ip4.String(), nil
	}
	return "", errors.New(errors.KindNotFound, "no usable IPv4 address on host")
}

// MachineIP returns the host's primary IPv4 address.
func MachineIP() (string, error) {
	candidates, err := hostCandidates()
	if err != nil {
		return "", errors.Wrap(err, errors.KindInternal, "failed to enumerate host addresses")
	}
	return PickAddress(candidates)
}
