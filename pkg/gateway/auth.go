package gateway

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Authorizer controls incoming gateway requests.
type Authorizer interface {
	Allow(ctx context.Context, remoteAddr string) error
}

type NoopAuthorizer struct{}

func (NoopAuthorizer) Allow(context.Context, string) error {
	return nil
}

// AllowlistAuthorizer allows only listed hosts or networks. An empty list
// allows everyone.
type AllowlistAuthorizer struct {
	hosts    map[string]struct{}
	networks []*net.IPNet
}

// NewAllowlist accepts plain addresses ("127.0.0.1", "::1") and CIDR ranges
// ("10.0.0.0/8").
func NewAllowlist(entries []string) (*AllowlistAuthorizer, error) {
	a := &AllowlistAuthorizer{hosts: make(map[string]struct{})}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("parse allowlist entry %q: %w", entry, err)
			}
			a.networks = append(a.networks, network)
			continue
		}
		a.hosts[entry] = struct{}{}
	}
	return a, nil
}

func (a *AllowlistAuthorizer) Allow(_ context.Context, remoteAddr string) error {
	if len(a.hosts) == 0 && len(a.networks) == 0 {
		return nil
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	if _, ok := a.hosts[host]; ok {
		return nil
	}
	if _, ok := a.hosts[remoteAddr]; ok {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil {
		for _, network := range a.networks {
			if network.Contains(ip) {
				return nil
			}
		}
	}
	return fmt.Errorf("remote address not allowed: %s", remoteAddr)
}
