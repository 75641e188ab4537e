package ifnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	for in, want := range map[string]Command{
		"ALL":            All(),
		"ALL\n":          All(),
		"IFNAME eth0":    ByName("eth0"),
		"IFNAME  wlan0 ": ByName("wlan0"),
		"IFNAME lo\x00":  ByName("lo"),
	} {
		got, err := ParseCommand(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}
}

func TestParseCommandErrors(t *testing.T) {
	for in, want := range map[string]error{
		"":                 ErrUnknownCommand,
		"LIST":             ErrUnknownCommand,
		"all":              ErrUnknownCommand,
		"IFNAME":           ErrInvalidFormat,
		"IFNAME eth0 eth1": ErrInvalidFormat,
	} {
		_, err := ParseCommand(in)
		assert.ErrorIs(t, err, want, "%q", in)
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "ALL", All().String())
	assert.Equal(t, "IFNAME eth0", ByName("eth0").String())

	for _, c := range []Command{All(), ByName("br-1")} {
		got, err := ParseCommand(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestErrorReply(t *testing.T) {
	assert.Equal(t, "Invalid command format.\n", errorReply(ErrInvalidFormat))
	assert.Equal(t, "Unknown command.\n", errorReply(ErrUnknownCommand))
}
