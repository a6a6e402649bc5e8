// Package domain defines the core domain models for respkv.
package domain

import (
	"strings"
	"time"
)

// Command is a decoded client request. Values are immutable once decoded.
type Command interface {
	// Name returns the canonical upper-case verb.
	Name() string
	isCommand()
}

// Ping is the PING command.
type Ping struct{}

// Echo is the ECHO command.
type Echo struct {
	Message []byte
}

// Info is the INFO command.
type Info struct {
	Section Section
}

// Set is the SET command, optionally carrying a PX expiry.
type Set struct {
	Key   string
	Value []byte
	// TTL is only meaningful when HasTTL is true. PX 0 is a valid, already
	// elapsed expiry.
	TTL    time.Duration
	HasTTL bool
}

// Get is the GET command.
type Get struct {
	Key string
}

func (Ping) Name() string { return "PING" }
func (Echo) Name() string { return "ECHO" }
func (Info) Name() string { return "INFO" }
func (Set) Name() string  { return "SET" }
func (Get) Name() string  { return "GET" }

func (Ping) isCommand() {}
func (Echo) isCommand() {}
func (Info) isCommand() {}
func (Set) isCommand()  {}
func (Get) isCommand()  {}

// Section selects which INFO block is requested.
// The zero value is the "all sections" selector.
type Section struct {
	name  string
	named bool
}

// SectionAll returns the selector used when INFO has no argument.
func SectionAll() Section {
	return Section{}
}

// NamedSection returns a selector for one named section.
func NamedSection(name string) Section {
	return Section{name: name, named: true}
}

// IsAll reports whether the section selects everything.
func (s Section) IsAll() bool {
	return !s.named
}

// Name returns the requested section name, or "" for All.
func (s Section) Name() string {
	return s.name
}

// Includes reports whether the named section is covered by s.
// Section names compare case-insensitively.
func (s Section) Includes(name string) bool {
	return !s.named || strings.EqualFold(s.name, name)
}
