package peer

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"
)

// Listen opens a TCP listener on host, starting at port and moving to the
// next port when binding fails, for at most attempts ports. It returns the
// listener and the port actually bound.
func Listen(host string, port, attempts int, log *zap.SugaredLogger) (net.Listener, int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port+i))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			log.Warnw("port unavailable", "addr", addr, "error", err)
			lastErr = err
			continue
		}
		bound := port + i
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
			bound = tcp.Port
		}
		log.Infow("listening for peer", "addr", ln.Addr().String())
		return ln, bound, nil
	}
	return nil, 0, fmt.Errorf("listen on %s ports %d-%d: %w", host, port, port+attempts-1, lastErr)
}

// Accept waits for one peer connection. Cancelling ctx closes the listener.
func Accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	c, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept peer: %w", err)
	}
	return c, nil
}
