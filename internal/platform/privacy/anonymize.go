// Package privacy reduces client addresses before they leave the process in
// telemetry.
package privacy

import "net/netip"

// AnonymizeIP keeps the network part of an address: /24 for IPv4 and /48 for
// IPv6. It returns "unknown" for an empty address and "invalid" for anything
// that does not parse. The abuse guard itself always uses the full address.
func AnonymizeIP(ip string) string {
	if ip == "" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
