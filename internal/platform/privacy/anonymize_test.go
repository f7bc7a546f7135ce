package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4", "192.168.1.47", "192.168.1.0"},
		{"ipv4 already zeroed", "10.0.0.0", "10.0.0.0"},
		{"ipv4 broadcast octet", "172.16.50.255", "172.16.50.0"},
		{"ipv4-mapped ipv6", "::ffff:203.0.113.7", "203.0.113.0"},
		{"ipv6", "2001:db8:85a3::8a2e:370:7334", "2001:db8:85a3::"},
		{"ipv6 with zone", "fe80::1%eth0", "fe80::"},
		{"ipv6 loopback", "::1", "::"},
		{"empty", "", "unknown"},
		{"hostname", "example.com", "invalid"},
		{"with port", "203.0.113.7:443", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}
