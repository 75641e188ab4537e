package ifnet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucaCeccarelli/projet-integrateur/hostinfo"
)

func fakeInterfaces() ([]hostinfo.Interface, error) {
	return []hostinfo.Interface{
		{Name: "lo", Addrs: []netip.Prefix{netip.MustParsePrefix("127.0.0.1/8")}},
		{Name: "eth0", Addrs: []netip.Prefix{
			netip.MustParsePrefix("192.168.1.20/24"),
			netip.MustParsePrefix("fe80::1/64"),
		}},
	}, nil
}

func startServer(t *testing.T, list func() ([]hostinfo.Interface, error)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	s := NewServer(ln, ServerConfig{MaxConns: 4, Interfaces: list})
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func rawExchange(t *testing.T, addr, cmd string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, cmd)
	require.NoError(t, err)
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestQueryAll(t *testing.T) {
	addr := startServer(t, fakeInterfaces)

	var buf bytes.Buffer
	require.NoError(t, Query(context.Background(), addr, All(), &buf))
	assert.Equal(t, "lo:\n  127.0.0.1/8\neth0:\n  192.168.1.20/24\n  fe80::1/64\n", buf.String())
}

func TestQueryByName(t *testing.T) {
	addr := startServer(t, fakeInterfaces)

	var buf bytes.Buffer
	require.NoError(t, Query(context.Background(), addr, ByName("eth0"), &buf))
	assert.Equal(t, "192.168.1.20/24\nfe80::1/64\n", buf.String())

	buf.Reset()
	require.NoError(t, Query(context.Background(), addr, ByName("tun9"), &buf))
	assert.Equal(t, "Interface 'tun9' not found or has no IP addresses.\n", buf.String())
}

func TestServerRejectsBadCommands(t *testing.T) {
	addr := startServer(t, fakeInterfaces)

	assert.Equal(t, "Unknown command.\n", rawExchange(t, addr, "HELLO"))
	assert.Equal(t, "Invalid command format.\n", rawExchange(t, addr, "IFNAME"))
}

func TestServerListingFailure(t *testing.T) {
	addr := startServer(t, func() ([]hostinfo.Interface, error) {
		return nil, errors.New("no netlink")
	})
	assert.Equal(t, "Error retrieving interface information.\n", rawExchange(t, addr, "ALL"))
}

func TestServerHandlesSequentialClients(t *testing.T) {
	addr := startServer(t, fakeInterfaces)
	for range 10 {
		assert.Equal(t, "127.0.0.1/8\n", rawExchange(t, addr, "IFNAME lo"))
	}
}

func TestQueryConnectError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = Query(context.Background(), addr, All(), io.Discard)
	assert.Error(t, err)
}
