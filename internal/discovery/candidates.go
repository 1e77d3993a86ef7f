package discovery

import (
	"fmt"
	"net"
	"strings"
)

// DefaultFallbacks are tried after the subnet-derived guesses: local loopback,
// the Android emulator host alias, and the last address the backend was
// observed on during development.
var DefaultFallbacks = []string{"127.0.0.1", "10.0.2.2", "192.168.29.185"}

// buildCandidates assembles the ordered, de-duplicated probe list: the
// device-local address first, then the .1 and .254 guesses on its /24, then
// the fixed fallbacks. The subnet guesses are a best-effort heuristic for
// finding a backend running on another machine of the same LAN.
func buildCandidates(local string, fallbacks []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(host string) {
		if host == "" || seen[host] {
			return
		}
		seen[host] = true
		out = append(out, host)
	}

	add(local)
	if base := subnetBase(local); base != "" {
		add(base + ".1")
		add(base + ".254")
	}
	for _, f := range fallbacks {
		add(strings.TrimSpace(f))
	}
	return out
}

// subnetBase returns the first three octets of an IPv4 address, or "" when
// the input is not a usable IPv4 literal.
func subnetBase(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", ip4[0], ip4[1], ip4[2])
}

// localIPv4 returns the first usable IPv4 address of an up, non-loopback
// interface, or "" when none is found. Best effort only.
func localIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ip := addrToIP(a)
			if ip == nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			if ip4.IsUnspecified() || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
				continue
			}
			return ip4.String()
		}
	}
	return ""
}

func addrToIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
