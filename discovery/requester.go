package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

// ResponseWindow is how long a requester collects responses after its single send.
const ResponseWindow = 3 * time.Second

// Result is the outcome of one discovery round.
type Result struct {
	ID    int32    `json:"id"`
	Hop   int      `json:"hop"`
	Hosts []string `json:"hosts"` // first-seen order, no duplicates
}

// RequesterConfig holds requester settings. Broadcast is required.
type RequesterConfig struct {
	Broadcast net.Addr
	Logger    *slog.Logger
}

// Requester runs discovery rounds over conn: one broadcast request, then
// responses are collected until the window closes. It never re-sends.
type Requester struct {
	conn      net.PacketConn
	broadcast net.Addr
	log       *slog.Logger

	window time.Duration
	newID  func() int32
}

// NewRequester creates a Requester. The caller owns conn.
func NewRequester(conn net.PacketConn, cfg RequesterConfig) *Requester {
	r := &Requester{
		conn:      conn,
		broadcast: cfg.Broadcast,
		log:       cfg.Logger,
		window:    ResponseWindow,
		newID:     newRequestID,
	}
	if r.log == nil {
		r.log = logutil.Discard()
	}
	r.log = r.log.With("component", "requester")
	return r
}

// Discover broadcasts one request with the given hop budget (values below 1
// mean 1) and returns the hostnames that answered it within the response
// window or before ctx's deadline, whichever is sooner. Cancelling ctx ends
// collection early and returns what was gathered along with ctx's error.
func (r *Requester) Discover(ctx context.Context, hop int) (Result, error) {
	if hop < 1 {
		hop = 1
	}
	req := Request{ID: r.newID(), Hop: hop}
	res := Result{ID: req.ID, Hop: hop}

	payload, err := req.MarshalText()
	if err != nil {
		return res, err
	}
	deadline := time.Now().Add(r.window)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if _, err := r.conn.WriteTo(payload, r.broadcast); err != nil {
		return res, fmt.Errorf("send request: %w", err)
	}
	r.log.Debug("sent request", "id", req.ID, "hop", hop, "to", r.broadcast)

	defer r.conn.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		r.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	hosts := newHostSet()
	buf := make([]byte, MaxDatagramSize)
	for ctx.Err() == nil && time.Now().Before(deadline) {
		if err := r.conn.SetReadDeadline(deadline); err != nil {
			return res, fmt.Errorf("set read deadline: %w", err)
		}
		// ctx may have fired between the loop check and the deadline above.
		if ctx.Err() != nil {
			break
		}
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				res.Hosts = hosts.list()
				return res, err
			}
			r.log.Warn("receive failed", "error", err)
			continue
		}
		resp, err := DecodeResponse(buf[:n])
		switch {
		case err != nil:
			metricRequesterResponses.WithLabelValues(resultMalformed).Inc()
		case resp.ID != req.ID:
			metricRequesterResponses.WithLabelValues(resultForeign).Inc()
			r.log.Debug("ignoring response for another round", "id", resp.ID, "from", from)
		case hosts.add(resp.Hostname):
			metricRequesterResponses.WithLabelValues(resultNew).Inc()
			r.log.Debug("discovered host", "hostname", resp.Hostname, "from", from)
		default:
			metricRequesterResponses.WithLabelValues(resultDuplicate).Inc()
		}
	}
	res.Hosts = hosts.list()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return res, err
	}
	return res, nil
}

// Discover opens an ephemeral broadcast socket, runs one round against
// broadcast and closes the socket.
func Discover(ctx context.Context, broadcast net.Addr, hop int, logger *slog.Logger) (Result, error) {
	conn, err := Listen(ctx, ":0")
	if err != nil {
		return Result{}, err
	}
	defer conn.Close()
	return NewRequester(conn, RequesterConfig{Broadcast: broadcast, Logger: logger}).Discover(ctx, hop)
}

// hostSet keeps hostnames unique in insertion order.
type hostSet struct {
	seen  map[string]struct{}
	order []string
}

func newHostSet() *hostSet {
	return &hostSet{seen: make(map[string]struct{})}
}

func (s *hostSet) add(name string) bool {
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *hostSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
