package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// DefaultPort is the UDP port every agent listens on.
const DefaultPort = 54321

// DefaultBroadcastAddress is the limited broadcast address requests are sent to.
const DefaultBroadcastAddress = "255.255.255.255"

// Listen opens a UDP4 socket on addr with broadcast sends enabled. An addr of
// ":0" binds an ephemeral port, which is what a requester uses.
func Listen(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return pc.(*net.UDPConn), nil
}

// BroadcastAddr resolves the destination requests are broadcast to.
func BroadcastAddr(host string, port int) (*net.UDPAddr, error) {
	if host == "" {
		host = DefaultBroadcastAddress
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve broadcast address: %w", err)
	}
	return addr, nil
}
