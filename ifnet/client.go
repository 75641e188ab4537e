package ifnet

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// Query sends cmd to the agent at addr ("host:port") and copies the reply to w.
func Query(ctx context.Context, addr string, cmd Command, w io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := io.WriteString(conn, cmd.String()); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	if _, err := io.Copy(w, conn); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	return nil
}
