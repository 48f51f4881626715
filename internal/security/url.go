// Package security holds checks for links the site hands to visitors.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidatePublicURL checks that rawURL is an http or https link to a host a
// visitor's browser can reach from anywhere. Loopback, private, link-local
// and unspecified addresses are rejected, as is localhost. Hostnames are
// not resolved.
func ValidatePublicURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("must have a host")
	}

	hostLower := strings.ToLower(host)
	if hostLower == "localhost" || hostLower == "localhost.localdomain" {
		return fmt.Errorf("localhost is not reachable by visitors")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback address %s is not reachable by visitors", ip)
	case ip.IsPrivate():
		return fmt.Errorf("private address %s is not reachable by visitors", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local address %s is not reachable by visitors", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified address %s is not reachable by visitors", ip)
	}
	return nil
}
