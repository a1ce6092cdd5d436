package transport

import (
	"context"
	"net"
	"time"
)

// timeoutDialer bounds TCP connection establishment independently of the
// overall request timeout, matching original_source's client.rs
// (connect_timeout(10s) alongside an overall timeout(30s)).
type timeoutDialer struct {
	connectTimeout time.Duration
}

func (d *timeoutDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: d.connectTimeout}
	return dialer.DialContext(ctx, network, addr)
}
