// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"grimm.is/yamato/internal/errors"
	"grimm.is/yamato/internal/logging"
)

// Line is one comment-stripped "left: right" line of a fleet file.
// Level 0 is global scope; anything indented belongs to a worker.
type Line struct {
	Level int
	Left  string
	Right string
}

// StripComment removes a trailing // comment.
func StripComment(raw string) string {
	if i := strings.Index(raw, "//"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// SplitLine splits raw at its first colon. Level is the number of leading
// whitespace characters. ok is false for blank lines, lines without a
// colon and lines with an empty key.
func SplitLine(raw string) (Line, bool) {
	raw = strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return Line{}, false
	}
	body := strings.TrimLeft(raw, " \t")
	left, right, found := strings.Cut(body, ":")
	if !found {
		return Line{}, false
	}
	left = strings.TrimSpace(left)
	if left == "" {
		return Line{}, false
	}
	return Line{
		Level: len(raw) - len(body),
		Left:  left,
		Right: strings.TrimSpace(right),
	}, true
}

// globalKeys are the recognized level-0 directives. "group" is handled
// separately because it names the fleet rather than setting an attribute.
var globalKeys = map[string]Key{
	"nameserver":  KeyDNS,
	"method":      KeyMethod,
	"fastopen":    KeyFastOpen,
	"redirect":    KeyRedirect,
	"timeout":     KeyTimeout,
	"server":      KeyServer,
	"tunnel_mode": KeyMode,
	"verbose":     KeyVerbose,
}

// Options tunes parsing.
type Options struct {
	// ResolveLocal returns this host's address for "nameserver: localhost"
	// and "nameserver: bind9-local".
	ResolveLocal func() (string, error)
	Logger       *logging.Logger
}

// Parsed is the result of reading one fleet file.
type Parsed struct {
	Group   string
	Default *AttributeSet
	Workers []*AttributeSet
}

// Parse turns fleet-file lines into the default set and one set per
// worker line. It never fails: malformed and unknown lines are skipped.
func Parse(lines []string, opts Options) *Parsed {
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("config")
	}

	p := &Parsed{Default: &AttributeSet{}}
	for n, raw := range lines {
		line, ok := SplitLine(StripComment(raw))
		if !ok {
			continue
		}

		if line.Level == 0 {
			p.applyGlobal(line, opts, logger)
			continue
		}

		if !validPort(line.Right) {
			logger.Warn("skipping worker line with invalid port", "line", n+1, "worker", line.Left, "port", line.Right)
			continue
		}
		w := p.Default.Clone()
		w.Set(KeyPassword, line.Left)
		w.Set(KeyRemotePort, line.Right)
		p.Workers = append(p.Workers, w)
	}
	return p
}

func (p *Parsed) applyGlobal(line Line, opts Options, logger *logging.Logger) {
	if line.Left == "group" {
		p.Group = line.Right
		return
	}
	key, known := globalKeys[line.Left]
	if !known {
		logger.Debug("ignoring unrecognized directive", "key", line.Left)
		return
	}
	value := line.Right
	if key == KeyDNS && isLocalResolver(value) {
		value = resolveLocal(opts, logger)
	}
	p.Default.Set(key, value)
}

func isLocalResolver(v string) bool {
	return strings.EqualFold(v, "localhost") || strings.EqualFold(v, "bind9-local")
}

func resolveLocal(opts Options, logger *logging.Logger) string {
	if opts.ResolveLocal == nil {
		return "127.0.0.1"
	}
	addr, err := opts.ResolveLocal()
	if err != nil || addr == "" {
		logger.Warn("cannot determine host address for local nameserver, using loopback", "error", err)
		return "127.0.0.1"
	}
	return addr
}

func validPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n <= 65535
}

// ReadLines reads path into lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// ParseFile reads and parses a fleet file. A missing file, or one without
// a single content line, is a missing-input error.
func ParseFile(path string, opts Options) (*Parsed, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, errors.Attr(errors.Wrap(err, errors.KindMissingInput, "cannot read configuration"), "config", path)
	}
	content := false
	for _, l := range lines {
		if strings.TrimSpace(StripComment(l)) != "" {
			content = true
			break
		}
	}
	if !content {
		return nil, errors.Attr(errors.New(errors.KindMissingInput, "configuration is empty"), "config", path)
	}
	return Parse(lines, opts), nil
}
