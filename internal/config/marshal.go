// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"bytes"
	"fmt"
)

// directiveOrder is the order Marshal writes global directives in.
var directiveOrder = []struct {
	name string
	key  Key
}{
	{"server", KeyServer},
	{"method", KeyMethod},
	{"timeout", KeyTimeout},
	{"nameserver", KeyDNS},
	{"fastopen", KeyFastOpen},
	{"redirect", KeyRedirect},
	{"tunnel_mode", KeyMode},
	{"verbose", KeyVerbose},
}

// Marshal renders p back into fleet-file syntax: global directives from
// the default set, then one indented "name: port" line per worker.
// Workers are assumed to share the default set; per-worker differences
// caused by interleaved directives are not preserved.
func Marshal(p *Parsed) []byte {
	var buf bytes.Buffer
	if p.Group != "" {
		fmt.Fprintf(&buf, "group: %s\n", p.Group)
	}
	for _, d := range directiveOrder {
		if v, ok := p.Default.Get(d.key); ok {
			fmt.Fprintf(&buf, "%s: %s\n", d.name, v)
		}
	}
	if len(p.Workers) > 0 {
		buf.WriteString("users:\n")
	}
	for _, w := range p.Workers {
		fmt.Fprintf(&buf, "  %s: %s\n", w.Value(KeyPassword), w.Port())
	}
	return buf.Bytes()
}
