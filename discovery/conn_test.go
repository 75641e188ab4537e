package discovery

import (
	"net"
	"os"
	"sync"
	"time"
)

type packet struct {
	data string
	addr net.Addr
}

// fakeConn is an in-memory net.PacketConn. Datagrams pushed with deliver are
// returned by ReadFrom; everything written is recorded.
type fakeConn struct {
	local *net.UDPAddr
	inbox chan packet

	mu        sync.Mutex
	sent      []packet
	writeErr  error
	deadline  time.Time
	wake      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn(port int) *fakeConn {
	return &fakeConn{
		local:  &net.UDPAddr{IP: net.IPv4(10, 0, 0, byte(port%250+1)), Port: port},
		inbox:  make(chan packet, 64),
		wake:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) deliver(data string, from net.Addr) {
	c.inbox <- packet{data: data, addr: from}
}

func (c *fakeConn) sentPackets() []packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]packet, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) setWriteErr(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

func (c *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		c.mu.Lock()
		deadline, wake := c.deadline, c.wake
		c.mu.Unlock()

		var timer *time.Timer
		var expired <-chan time.Time
		if !deadline.IsZero() {
			wait := time.Until(deadline)
			if wait <= 0 {
				return 0, nil, os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(wait)
			expired = timer.C
		}
		n, from, done, err := c.wait(b, expired, wake)
		if timer != nil {
			timer.Stop()
		}
		if done {
			return n, from, err
		}
	}
}

func (c *fakeConn) wait(b []byte, expired <-chan time.Time, wake <-chan struct{}) (int, net.Addr, bool, error) {
	select {
	case p := <-c.inbox:
		return copy(b, p.data), p.addr, true, nil
	case <-c.closed:
		return 0, nil, true, net.ErrClosed
	case <-expired:
		return 0, nil, true, os.ErrDeadlineExceeded
	case <-wake:
		// deadline changed, re-evaluate
		return 0, nil, false, nil
	}
}

func (c *fakeConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.sent = append(c.sent, packet{data: string(b), addr: addr})
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr { return c.local }

func (c *fakeConn) SetDeadline(t time.Time) error { return c.SetReadDeadline(t) }

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	close(c.wake)
	c.wake = make(chan struct{})
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func udpAddr(last byte, port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(192, 168, 1, last), Port: port}
}
