package hostinfo

import (
	"bytes"
	"net/netip"
	"testing"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() psnet.InterfaceStatList {
	return psnet.InterfaceStatList{
		{Name: "lo", Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}, {Addr: "::1/128"}}},
		{Name: "eth0", Addrs: psnet.InterfaceAddrList{{Addr: "192.168.1.20/24"}, {Addr: "fe80::1%eth0/64"}}},
		{Name: "wlan0"},
		{Name: "eth0", Addrs: psnet.InterfaceAddrList{{Addr: "10.0.0.5/8"}, {Addr: "garbage"}}},
	}
}

func TestFromStats(t *testing.T) {
	ifaces := fromStats(sampleStats())

	require.Len(t, ifaces, 2, "interfaces without addresses are skipped, duplicates merged")
	assert.Equal(t, "lo", ifaces[0].Name)
	assert.Equal(t, "eth0", ifaces[1].Name)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("192.168.1.20/24"),
		netip.MustParsePrefix("fe80::1/64"),
		netip.MustParsePrefix("10.0.0.5/8"),
	}, ifaces[1].Addrs)
}

func TestWriteAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, fromStats(sampleStats())))

	assert.Equal(t, "lo:\n  127.0.0.1/8\n  ::1/128\n"+
		"eth0:\n  192.168.1.20/24\n  fe80::1/64\n  10.0.0.5/8\n", buf.String())
}

func TestWriteByName(t *testing.T) {
	ifaces := fromStats(sampleStats())

	var buf bytes.Buffer
	require.NoError(t, WriteByName(&buf, ifaces, "lo"))
	assert.Equal(t, "127.0.0.1/8\n::1/128\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteByName(&buf, ifaces, "wlan0"))
	assert.Equal(t, "Interface 'wlan0' not found or has no IP addresses.\n", buf.String())
}

func TestPrimaryIPv4(t *testing.T) {
	assert.Equal(t, "192.168.1.20", primaryIPv4(fromStats(sampleStats())))
	assert.Equal(t, "", primaryIPv4(nil))
}

func TestHostnameNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, Hostname())
}
