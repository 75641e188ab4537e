package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/thejerf/suture/v4"

	"github.com/LucaCeccarelli/projet-integrateur/hostinfo"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

// readPollInterval bounds how long Serve blocks in a read before it looks at ctx again.
const readPollInterval = time.Second

// AgentConfig holds agent settings. Broadcast is required.
type AgentConfig struct {
	// Broadcast is where requests with hop budget left are re-sent.
	Broadcast net.Addr
	// CacheCapacity bounds the dedup cache; zero selects DefaultCacheCapacity.
	CacheCapacity int
	// Hostname names this machine in responses; defaults to hostinfo.Hostname.
	Hostname func() string
	Logger   *slog.Logger
}

// Agent answers discovery requests arriving on conn and forwards those with hop
// budget left. Each agent owns its dedup cache, so several agents can share a process.
type Agent struct {
	id        string
	conn      net.PacketConn
	broadcast net.Addr
	cache     *Cache
	hostname  func() string
	log       *slog.Logger

	requests   atomic.Uint64
	responses  atomic.Uint64
	forwards   atomic.Uint64
	dropped    atomic.Uint64
	sendErrors atomic.Uint64
}

// Stats is a snapshot of an agent's counters.
type Stats struct {
	InstanceID string `json:"instance_id"`
	LocalAddr  string `json:"local_addr"`
	CacheLen   int    `json:"cache_len"`
	CacheCap   int    `json:"cache_cap"`
	Requests   uint64 `json:"requests"`
	Responses  uint64 `json:"responses"`
	Forwards   uint64 `json:"forwards"`
	Dropped    uint64 `json:"dropped"`
	SendErrors uint64 `json:"send_errors"`
}

// NewAgent creates an Agent. The caller opens conn (see Listen) and closes it.
func NewAgent(conn net.PacketConn, cfg AgentConfig) *Agent {
	a := &Agent{
		id:        uuid.NewString(),
		conn:      conn,
		broadcast: cfg.Broadcast,
		cache:     NewCache(cfg.CacheCapacity),
		hostname:  cfg.Hostname,
		log:       cfg.Logger,
	}
	if a.hostname == nil {
		a.hostname = hostinfo.Hostname
	}
	if a.log == nil {
		a.log = logutil.Discard()
	}
	a.log = a.log.With("component", "agent", "instance", a.id)
	return a
}

func (a *Agent) String() string {
	return "discovery agent " + a.id
}

// Stats returns the current counters.
func (a *Agent) Stats() Stats {
	return Stats{
		InstanceID: a.id,
		LocalAddr:  a.conn.LocalAddr().String(),
		CacheLen:   a.cache.Len(),
		CacheCap:   a.cache.Cap(),
		Requests:   a.requests.Load(),
		Responses:  a.responses.Load(),
		Forwards:   a.forwards.Load(),
		Dropped:    a.dropped.Load(),
		SendErrors: a.sendErrors.Load(),
	}
}

// Serve runs the receive loop until ctx is cancelled or conn is closed. One
// datagram is fully handled before the next is read. Receive errors are logged
// and the loop continues.
func (a *Agent) Serve(ctx context.Context) error {
	a.log.Info("agent listening", "addr", a.conn.LocalAddr(), "broadcast", a.broadcast)
	buf := make([]byte, MaxDatagramSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.conn.SetReadDeadline(time.Now().Add(readPollInterval)); err != nil {
			return fmt.Errorf("%w: set read deadline: %w", suture.ErrDoNotRestart, err)
		}
		n, from, err := a.conn.ReadFrom(buf)
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				continue
			case errors.Is(err, net.ErrClosed):
				return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
			}
			a.log.Warn("receive failed", "error", err)
			continue
		}
		a.HandleDatagram(buf[:n], from)
	}
}

// HandleDatagram processes one datagram received from `from`: a well-formed
// request is always answered, recorded in the cache, and re-broadcast with
// hop-1 only if its id was not seen before and its hop exceeds 1. Anything
// else is dropped silently.
func (a *Agent) HandleDatagram(data []byte, from net.Addr) {
	req, err := DecodeRequest(data)
	if err != nil {
		a.dropped.Add(1)
		metricAgentDropped.WithLabelValues(dropMalformed).Inc()
		a.log.Debug("ignoring datagram", "from", from, "error", err)
		return
	}
	a.requests.Add(1)
	metricAgentRequests.Inc()

	seen := a.cache.Seen(req.ID)
	a.answer(req.ID, from)
	if !a.cache.Record(req.ID) {
		metricAgentCacheFull.Inc()
		a.log.Debug("dedup cache full, id not recorded", "id", req.ID, "capacity", a.cache.Cap())
	}
	if req.Hop > 1 && !seen {
		a.forward(Request{ID: req.ID, Hop: req.Hop - 1})
	}
}

func (a *Agent) answer(id int32, to net.Addr) {
	payload, err := Response{ID: id, Hostname: hostnameToken(a.hostname())}.MarshalText()
	if err != nil {
		// unreachable: hostnameToken always yields a single token
		a.log.Error("encode response", "id", id, "error", err)
		return
	}
	if _, err := a.conn.WriteTo(payload, to); err != nil {
		a.sendErrors.Add(1)
		metricAgentSendErrors.WithLabelValues(sendAnswer).Inc()
		a.log.Warn("send response failed", "id", id, "to", to, "error", err)
		return
	}
	a.responses.Add(1)
	metricAgentResponses.Inc()
	a.log.Debug("answered request", "id", id, "to", to)
}

func (a *Agent) forward(req Request) {
	payload, err := req.MarshalText()
	if err != nil {
		a.log.Error("encode forwarded request", "id", req.ID, "error", err)
		return
	}
	if _, err := a.conn.WriteTo(payload, a.broadcast); err != nil {
		a.sendErrors.Add(1)
		metricAgentSendErrors.WithLabelValues(sendForward).Inc()
		a.log.Warn("forward request failed", "id", req.ID, "hop", req.Hop, "error", err)
		return
	}
	a.forwards.Add(1)
	metricAgentForwards.Inc()
	a.log.Debug("forwarded request", "id", req.ID, "hop", req.Hop, "to", a.broadcast)
}

// hostnameToken makes name safe to put on the wire, substituting the placeholder
// when the name is empty or cannot be sent as one token.
func hostnameToken(name string) string {
	if name == "" || strings.ContainsFunc(name, unicode.IsSpace) {
		return hostinfo.UnknownHostname
	}
	return name
}
