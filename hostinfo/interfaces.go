package hostinfo

import (
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	psnet "github.com/shirou/gopsutil/v4/net"
)

// Interface is a network interface and its IPv4/IPv6 addresses with prefix lengths.
type Interface struct {
	Name  string         `json:"name"`
	Addrs []netip.Prefix `json:"addrs"`
}

// Interfaces lists local interfaces that carry at least one IP address, in
// the order the system reports them.
func Interfaces() ([]Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	return fromStats(stats), nil
}

func fromStats(stats psnet.InterfaceStatList) []Interface {
	var out []Interface
	index := make(map[string]int)
	for _, st := range stats {
		for _, a := range st.Addrs {
			p, ok := parsePrefix(a.Addr)
			if !ok {
				continue
			}
			i, found := index[st.Name]
			if !found {
				i = len(out)
				index[st.Name] = i
				out = append(out, Interface{Name: st.Name})
			}
			out[i].Addrs = append(out[i].Addrs, p)
		}
	}
	return out
}

// parsePrefix reads "addr/bits", tolerating an IPv6 zone on the address.
func parsePrefix(s string) (netip.Prefix, bool) {
	host, bits, ok := strings.Cut(s, "/")
	if !ok {
		return netip.Prefix{}, false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Prefix{}, false
	}
	n, err := strconv.Atoi(bits)
	if err != nil {
		return netip.Prefix{}, false
	}
	p := netip.PrefixFrom(addr.WithZone(""), n)
	return p, p.IsValid()
}

// Find returns the interface called name.
func Find(ifaces []Interface, name string) (Interface, bool) {
	for _, iface := range ifaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// WriteAll prints every interface as "name:" followed by one indented
// "addr/prefix" line per address.
func WriteAll(w io.Writer, ifaces []Interface) error {
	for _, iface := range ifaces {
		if _, err := fmt.Fprintf(w, "%s:\n", iface.Name); err != nil {
			return err
		}
		for _, p := range iface.Addrs {
			if _, err := fmt.Fprintf(w, "  %s\n", p); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteByName prints the "addr/prefix" lines of one interface, or a
// not-found notice when it has no addresses.
func WriteByName(w io.Writer, ifaces []Interface, name string) error {
	iface, ok := Find(ifaces, name)
	if !ok {
		_, err := fmt.Fprintf(w, "Interface '%s' not found or has no IP addresses.\n", name)
		return err
	}
	for _, p := range iface.Addrs {
		if _, err := fmt.Fprintf(w, "%s\n", p); err != nil {
			return err
		}
	}
	return nil
}
