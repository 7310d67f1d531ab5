package daemon

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"
)

// Dialer opens a network connection; *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ConnectivityProbe checks whether the update server is reachable and
// reports transitions from offline to online.
type ConnectivityProbe struct {
	address  string
	timeout  time.Duration
	dialer   Dialer
	onOnline func()

	mu    sync.Mutex
	known bool
	up    bool
}

// NewConnectivityProbe probes the host of baseURL. onOnline runs on every
// offline to online transition; the first probe only records the state.
func NewConnectivityProbe(baseURL string, timeout time.Duration, dialer Dialer, onOnline func()) (*ConnectivityProbe, error) {
	address, err := probeAddress(baseURL)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConnectivityProbe{address: address, timeout: timeout, dialer: dialer, onOnline: onOnline}, nil
}

func probeAddress(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// Online reports the last observed state.
func (p *ConnectivityProbe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up
}

// Probe dials the server once and updates the state.
func (p *ConnectivityProbe) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	up := false
	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err == nil {
		up = true
		_ = conn.Close()
	}

	p.mu.Lock()
	restored := p.known && !p.up && up
	changed := !p.known || p.up != up
	p.known, p.up = true, up
	p.mu.Unlock()

	if changed {
		slog.Info("Connectivity changed", slog.String("address", p.address), slog.Bool("online", up))
	}
	if restored && p.onOnline != nil {
		p.onOnline()
	}
	return up
}
