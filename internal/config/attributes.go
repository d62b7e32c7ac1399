// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import "fmt"

// Key is one of the closed set of attributes a worker can carry.
type Key int

const (
	KeyDNS Key = iota
	KeyMethod
	KeyFastOpen
	KeyRedirect
	KeyTimeout
	KeyServer
	KeyMode
	KeyVerbose
	KeyRemotePort
	// KeyPassword holds the free-form identifier of a worker line; it
	// doubles as the worker's shadowsocks password.
	KeyPassword

	keyCount
)

var keyNames = [keyCount]string{
	KeyDNS:        "DNS",
	KeyMethod:     "METHOD",
	KeyFastOpen:   "TCP_FASTOPEN",
	KeyRedirect:   "REDIRECT",
	KeyTimeout:    "TIMEOUT",
	KeyServer:     "SERVER",
	KeyMode:       "UDP_OR_TCP",
	KeyVerbose:    "VERBOSE",
	KeyRemotePort: "REMOTE_PORT",
	KeyPassword:   "PASSWORD",
}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// Keys returns every key in declaration order.
func Keys() []Key {
	keys := make([]Key, keyCount)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// AttributeSet maps keys to string values. The zero value is an empty set.
// Worker sets inherit from the default set by copy (Clone), so a global
// directive that appears after a worker line does not reach that worker.
type AttributeSet struct {
	values [keyCount]string
	set    [keyCount]bool
}

// Get returns the value for k and whether it was set.
func (a *AttributeSet) Get(k Key) (string, bool) {
	if k < 0 || k >= keyCount {
		return "", false
	}
	return a.values[k], a.set[k]
}

// Value returns the value for k, or "" when unset.
func (a *AttributeSet) Value(k Key) string {
	v, _ := a.Get(k)
	return v
}

// Set assigns v to k. Out-of-range keys are ignored.
func (a *AttributeSet) Set(k Key, v string) {
	if k < 0 || k >= keyCount {
		return
	}
	a.values[k] = v
	a.set[k] = true
}

// Clone returns an independent copy.
func (a *AttributeSet) Clone() *AttributeSet {
	c := *a
	return &c
}

// Port is shorthand for the REMOTE_PORT value.
func (a *AttributeSet) Port() string {
	return a.Value(KeyRemotePort)
}

// Verbose reports whether the worker should run with -v.
func (a *AttributeSet) Verbose() bool {
	return a.Value(KeyVerbose) == "true"
}

// Equal reports whether both sets hold the same keys and values.
func (a *AttributeSet) Equal(b *AttributeSet) bool {
	return a.values == b.values && a.set == b.set
}
