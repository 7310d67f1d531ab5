package daemon

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggleDialer struct {
	up      atomic.Bool
	address atomic.Value
}

func (d *toggleDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	d.address.Store(address)
	if !d.up.Load() {
		return nil, errors.New("network unreachable")
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func TestProbeAddress(t *testing.T) {
	tests := map[string]string{
		"http://updates.example.org":       "updates.example.org:80",
		"https://updates.example.org/api":  "updates.example.org:443",
		"http://updates.example.org:8080/": "updates.example.org:8080",
	}
	for in, want := range tests {
		got, err := probeAddress(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestConnectivityProbeFiresOnRestore(t *testing.T) {
	dialer := &toggleDialer{}
	var restored atomic.Int32
	p, err := NewConnectivityProbe("https://updates.example.org", 0, dialer, func() { restored.Add(1) })
	require.NoError(t, err)

	dialer.up.Store(true)
	assert.True(t, p.Probe(context.Background()))
	assert.Zero(t, restored.Load(), "first probe only records state")
	assert.Equal(t, "updates.example.org:443", dialer.address.Load())

	dialer.up.Store(false)
	assert.False(t, p.Probe(context.Background()))
	assert.False(t, p.Online())

	dialer.up.Store(true)
	assert.True(t, p.Probe(context.Background()))
	assert.True(t, p.Probe(context.Background()))
	assert.Equal(t, int32(1), restored.Load())
	assert.True(t, p.Online())
}
