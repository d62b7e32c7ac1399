// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"grimm.is/yamato/internal/errors"
)

// WorkerConfig is the JSON document ss-server reads via -c.
type WorkerConfig struct {
	Server     string `json:"server,omitempty"`
	ServerPort int    `json:"server_port"`
	Password   string `json:"password,omitempty"`
	Method     string `json:"method,omitempty"`
	Timeout    int    `json:"timeout,omitempty"`
	FastOpen   *bool  `json:"fast_open,omitempty"`
	Nameserver string `json:"nameserver,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Redirect   string `json:"redirect,omitempty"`

	Dropped []Key `json:"-"`
}

// NewWorkerConfig converts an attribute set. VERBOSE is not part of the
// document; it becomes the -v command-line flag. Only the port is
// mandatory: an unreadable timeout or fastopen value is left out of the
// document and its key is listed in Dropped.
func NewWorkerConfig(a *AttributeSet) (*WorkerConfig, error) {
	port, err := strconv.Atoi(a.Port())
	if err != nil || port <= 0 || port > 65535 {
		return nil, errors.Attr(errors.New(errors.KindValidation, "invalid remote port"), "port", a.Port())
	}

	wc := &WorkerConfig{
		Server:     a.Value(KeyServer),
		ServerPort: port,
		Password:   a.Value(KeyPassword),
		Method:     a.Value(KeyMethod),
		Nameserver: a.Value(KeyDNS),
		Mode:       a.Value(KeyMode),
		Redirect:   a.Value(KeyRedirect),
	}

	if v, ok := a.Get(KeyTimeout); ok && v != "" {
		if t, ok := parseSeconds(v); ok {
			wc.Timeout = t
		} else {
			wc.Dropped = append(wc.Dropped, KeyTimeout)
		}
	}
	if v, ok := a.Get(KeyFastOpen); ok && v != "" {
		if b, ok := parseSwitch(v); ok {
			wc.FastOpen = &b
		} else {
			wc.Dropped = append(wc.Dropped, KeyFastOpen)
		}
	}
	return wc, nil
}

// parseSeconds accepts a plain second count or a Go duration such as "60s".
func parseSeconds(v string) (int, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, n >= 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return int(d / time.Second), true
}

func parseSwitch(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

// Encode renders the document as indented JSON.
func (wc *WorkerConfig) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(wc, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "encode worker config")
	}
	return append(data, '\n'), nil
}

// RenderWorker serializes a worker set to ss-server JSON.
func RenderWorker(a *AttributeSet) ([]byte, error) {
	wc, err := NewWorkerConfig(a)
	if err != nil {
		return nil, err
	}
	return wc.Encode()
}

// ParseWorker reads an ss-server JSON document back into an attribute set.
func ParseWorker(data []byte) (*AttributeSet, error) {
	var wc WorkerConfig
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "decode worker config")
	}

	a := &AttributeSet{}
	a.Set(KeyRemotePort, strconv.Itoa(wc.ServerPort))
	setIf := func(k Key, v string) {
		if v != "" {
			a.Set(k, v)
		}
	}
	setIf(KeyServer, wc.Server)
	setIf(KeyPassword, wc.Password)
	setIf(KeyMethod, wc.Method)
	setIf(KeyDNS, wc.Nameserver)
	setIf(KeyMode, wc.Mode)
	setIf(KeyRedirect, wc.Redirect)
	if wc.Timeout != 0 {
		a.Set(KeyTimeout, strconv.Itoa(wc.Timeout))
	}
	if wc.FastOpen != nil {
		a.Set(KeyFastOpen, strconv.FormatBool(*wc.FastOpen))
	}
	return a, nil
}
