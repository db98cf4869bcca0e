// Package transit establishes the peer-to-peer or relayed byte stream a
// wormhole session sends file data over, once the mailbox has carried the
// PAKE and phase messages that derive the transit key.
package transit

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"securebeam.eu/securebeam/internal/werr"
)

// DirectHint is a candidate address a peer might be reachable at directly.
type DirectHint struct {
	Hostname string `json:"hostname"`
	Port     uint16 `json:"port"`
	Priority int    `json:"priority,omitempty"`
}

// Addr returns the "host:port" form used to dial this hint.
func (h DirectHint) Addr() string {
	return net.JoinHostPort(h.Hostname, strconv.Itoa(int(h.Port)))
}

// RelayHint is a relay server's address, given as a "tcp://host:port" URL.
type RelayHint struct {
	URL string `json:"url"`
}

// Addr parses the relay URL into a dialable "host:port" string.
func (h RelayHint) Addr() (string, error) {
	rest, ok := strings.CutPrefix(h.URL, "tcp://")
	if !ok {
		return "", werr.New(werr.Protocol, fmt.Sprintf("relay hint is not a tcp:// url: %q", h.URL))
	}
	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		return "", werr.Wrap(werr.Protocol, "malformed relay hint", err)
	}
	return net.JoinHostPort(host, port), nil
}

// Hints is the set of direct and relay hints a peer offers for the other
// side to try, in order.
type Hints struct {
	Direct []DirectHint `json:"direct_hints"`
	Relay  []RelayHint  `json:"relay_hints"`
}

// SortByPriority orders Direct from highest to lowest priority, stable on
// ties so hints that were equally likely keep their original order.
func (h *Hints) SortByPriority() {
	sort.SliceStable(h.Direct, func(i, j int) bool {
		return h.Direct[i].Priority > h.Direct[j].Priority
	})
}

// LocalDirectHints gathers this host's own addresses to offer the peer as
// direct connection candidates. IPv6 addresses are preferred over IPv4,
// matching the teacher prototype's preference for the more specific route.
func LocalDirectHints(listenPort uint16) Hints {
	var hints Hints
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return hints
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.IsLinkLocalUnicast() {
			continue
		}
		priority := 5
		if ipNet.IP.To4() == nil {
			priority = 10
		}
		hints.Direct = append(hints.Direct, DirectHint{
			Hostname: ipNet.IP.String(),
			Port:     listenPort,
			Priority: priority,
		})
	}
	hints.SortByPriority()
	return hints
}
