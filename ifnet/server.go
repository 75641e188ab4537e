package ifnet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/thejerf/suture/v4"
	"golang.org/x/sync/errgroup"

	"github.com/LucaCeccarelli/projet-integrateur/hostinfo"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

const defaultConnTimeout = 10 * time.Second

// ServerConfig holds agent settings.
type ServerConfig struct {
	// MaxConns bounds concurrently handled clients; further accepts wait.
	MaxConns int
	// Interfaces supplies the listing; defaults to hostinfo.Interfaces.
	Interfaces func() ([]hostinfo.Interface, error)
	Logger     *slog.Logger
}

// Server answers interface queries on a TCP listener.
type Server struct {
	ln         net.Listener
	maxConns   int
	interfaces func() ([]hostinfo.Interface, error)
	log        *slog.Logger
}

// NewServer creates a Server. The caller opens ln; Serve closes it when ctx ends.
func NewServer(ln net.Listener, cfg ServerConfig) *Server {
	s := &Server{
		ln:         ln,
		maxConns:   cfg.MaxConns,
		interfaces: cfg.Interfaces,
		log:        cfg.Logger,
	}
	if s.maxConns < 1 {
		s.maxConns = 1
	}
	if s.interfaces == nil {
		s.interfaces = hostinfo.Interfaces
	}
	if s.log == nil {
		s.log = logutil.Discard()
	}
	s.log = s.log.With("component", "ifnet")
	return s
}

func (s *Server) String() string {
	return "ifnet agent " + s.ln.Addr().String()
}

// Serve accepts clients until ctx is cancelled or the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	var g errgroup.Group
	g.SetLimit(s.maxConns)
	defer g.Wait()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		s.log.Info("accepted connection", "remote", conn.RemoteAddr())
		g.Go(func() error {
			s.handle(conn)
			return nil
		})
	}
}

// handle reads one command and streams the answer back, then closes conn.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		s.log.Warn("set deadline", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	buf := make([]byte, MaxCommandSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		s.log.Warn("read command failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	w := bufio.NewWriter(conn)
	if err := s.reply(w, string(buf[:n])); err != nil {
		s.log.Warn("write reply failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	if err := w.Flush(); err != nil {
		s.log.Warn("write reply failed", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (s *Server) reply(w io.Writer, raw string) error {
	cmd, err := ParseCommand(raw)
	if err != nil {
		s.log.Debug("rejected command", "command", raw, "error", err)
		_, werr := io.WriteString(w, errorReply(err))
		return werr
	}
	ifaces, err := s.interfaces()
	if err != nil {
		s.log.Error("list interfaces", "error", err)
		_, werr := io.WriteString(w, "Error retrieving interface information.\n")
		return werr
	}
	if cmd.All {
		return hostinfo.WriteAll(w, ifaces)
	}
	return hostinfo.WriteByName(w, ifaces, cmd.Interface)
}
