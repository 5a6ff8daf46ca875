// Package network builds dialers for outbound connections, honoring a
// forced IP protocol family. Redis is the only outbound dependency that
// dials by hostname, so a dual-stack host with a broken family can pin
// resolution to the working one.
package network

import (
	"fmt"
	"net"
	"syscall"
	"time"
)

// DialerFor returns a dialer restricted to the given protocol family.
// Accepted values are "ipv4", "ipv6", and "auto" (or empty) for no
// restriction.
func DialerFor(forceProtocol string) (*net.Dialer, error) {
	switch forceProtocol {
	case "", "auto":
		return &net.Dialer{Timeout: 5 * time.Second}, nil
	case "ipv4":
		return &net.Dialer{
			Timeout: 5 * time.Second,
			Control: func(network, address string, c syscall.RawConn) error {
				if network == "tcp6" || network == "udp6" {
					return fmt.Errorf("IPv6 disabled by force_protocol")
				}
				return nil
			},
		}, nil
	case "ipv6":
		return &net.Dialer{
			Timeout: 5 * time.Second,
			Control: func(network, address string, c syscall.RawConn) error {
				if network == "tcp4" || network == "udp4" {
					return fmt.Errorf("IPv4 disabled by force_protocol")
				}
				return nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("invalid force_protocol value %q", forceProtocol)
	}
}
