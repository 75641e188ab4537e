package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	// RequestTag starts every discovery request datagram.
	RequestTag = "NEIGHBOR_REQUEST"
	// ResponseTag starts every discovery response datagram.
	ResponseTag = "NEIGHBOR_RESPONSE"

	// MaxHostnameLen is the longest hostname carried in a response.
	MaxHostnameLen = 255
	// MaxDatagramSize is the receive buffer size; every valid message fits in it.
	MaxDatagramSize = 1024
)

// ErrMalformed is wrapped by every decode failure. Malformed datagrams are
// expected noise on a shared broadcast medium and are dropped by callers.
var ErrMalformed = errors.New("malformed discovery message")

// Request asks every agent in range to answer and, while Hop > 1, to re-broadcast.
type Request struct {
	ID  int32
	Hop int
}

// Response is sent unicast from an agent back to the address a request came from.
type Response struct {
	ID       int32
	Hostname string
}

// MarshalText encodes "NEIGHBOR_REQUEST <id> <hop>".
func (r Request) MarshalText() ([]byte, error) {
	if r.Hop < 1 {
		return nil, fmt.Errorf("encode request %d: hop %d below 1", r.ID, r.Hop)
	}
	return fmt.Appendf(nil, "%s %d %d", RequestTag, r.ID, r.Hop), nil
}

// MarshalText encodes "NEIGHBOR_RESPONSE <id> <hostname>". Hostnames longer than
// MaxHostnameLen are truncated.
func (r Response) MarshalText() ([]byte, error) {
	name := r.Hostname
	if name == "" || strings.ContainsFunc(name, unicode.IsSpace) {
		return nil, fmt.Errorf("encode response %d: hostname %q is not a single token", r.ID, name)
	}
	if len(name) > MaxHostnameLen {
		name = name[:MaxHostnameLen]
	}
	return fmt.Appendf(nil, "%s %d %s", ResponseTag, r.ID, name), nil
}

// DecodeRequest parses a request datagram.
func DecodeRequest(data []byte) (Request, error) {
	id, third, err := split(data, RequestTag)
	if err != nil {
		return Request{}, err
	}
	hop, err := strconv.Atoi(third)
	if err != nil {
		return Request{}, fmt.Errorf("%w: hop %q", ErrMalformed, third)
	}
	if hop < 1 {
		return Request{}, fmt.Errorf("%w: hop %d below 1", ErrMalformed, hop)
	}
	return Request{ID: id, Hop: hop}, nil
}

// DecodeResponse parses a response datagram.
func DecodeResponse(data []byte) (Response, error) {
	id, host, err := split(data, ResponseTag)
	if err != nil {
		return Response{}, err
	}
	if len(host) > MaxHostnameLen {
		return Response{}, fmt.Errorf("%w: hostname of %d bytes", ErrMalformed, len(host))
	}
	return Response{ID: id, Hostname: host}, nil
}

// split checks the "<tag> <id> <x>" shape and returns the parsed id and raw third token.
func split(data []byte, tag string) (int32, string, error) {
	if len(data) > MaxDatagramSize {
		return 0, "", fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	fields := strings.Fields(string(data))
	if len(fields) != 3 {
		return 0, "", fmt.Errorf("%w: %d fields", ErrMalformed, len(fields))
	}
	if fields[0] != tag {
		return 0, "", fmt.Errorf("%w: tag %q", ErrMalformed, fields[0])
	}
	id, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("%w: id %q", ErrMalformed, fields[1])
	}
	return int32(id), fields[2], nil
}
