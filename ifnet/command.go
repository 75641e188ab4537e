// Package ifnet carries interface listings between machines over TCP: a client
// sends "ALL" or "IFNAME <name>" and the agent streams back the listing as text.
package ifnet

import (
	"errors"
	"strings"
)

// DefaultPort is the TCP port the ifnet agent listens on.
const DefaultPort = 12345

// MaxCommandSize is the most the agent reads from a client before answering.
const MaxCommandSize = 1024

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidFormat  = errors.New("invalid command format")
)

// Command selects either every interface or a single one by name.
type Command struct {
	All       bool
	Interface string
}

// All lists every interface.
func All() Command {
	return Command{All: true}
}

// ByName lists the addresses of one interface.
func ByName(name string) Command {
	return Command{Interface: name}
}

func (c Command) String() string {
	if c.All {
		return "ALL"
	}
	return "IFNAME " + c.Interface
}

// ParseCommand reads a command as received on the wire.
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(strings.TrimRight(s, "\x00"))
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}
	switch fields[0] {
	case "ALL":
		return All(), nil
	case "IFNAME":
		if len(fields) != 2 {
			return Command{}, ErrInvalidFormat
		}
		return ByName(fields[1]), nil
	}
	return Command{}, ErrUnknownCommand
}

// errorReply is the text sent back to a client whose command was rejected.
func errorReply(err error) string {
	if errors.Is(err, ErrInvalidFormat) {
		return "Invalid command format.\n"
	}
	return "Unknown command.\n"
}
