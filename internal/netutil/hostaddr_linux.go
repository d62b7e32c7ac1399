// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package netutil

import (
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

func hostCandidates() ([]Candidate, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, link := range links {
		attrs := link.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := netlink.AddrList(link, unix.AF_INET)
		if err != nil {
			continue
		}
		out = append(out, linkCandidates(attrs, addrs)...)
	}
	return out, nil
}

// linkCandidates converts the addresses of one link. netlink reports link
// flags as net.Flags, so the net package constants apply.
func linkCandidates(attrs *netlink.LinkAttrs, addrs []netlink.Addr) []Candidate {
	if attrs.Flags&net.FlagLoopback != 0 {
		return nil
	}
	up := attrs.OperState == netlink.OperUp || attrs.Flags&net.FlagUp != 0
	var out []Candidate
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		out = append(out, Candidate{Iface: attrs.Name, IP: a.IP, Up: up})
	}
	return out
}
