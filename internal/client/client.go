// Package client talks to a timetable server over the lecture line protocol.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/me/timetable/internal/protocol"
)

// Client sends one request per connection to a timetable server.
type Client struct {
	Addr    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a Client for addr.
func New(addr string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{Addr: addr, Timeout: timeout, Logger: logger}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// Send writes message as one request line and returns the server's reply
// with surrounding whitespace trimmed. Reading stops at end of stream or
// after a line that is exactly the TERMINATE marker.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	log := c.logger()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	log.Debug("request", "addr", c.Addr, "message", message)
	if _, err := io.WriteString(conn, message+"\n"); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	var b strings.Builder
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		b.WriteString(line)
		if strings.TrimSpace(line) == protocol.Terminate {
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
	}

	reply := strings.TrimSpace(b.String())
	log.Debug("reply", "addr", c.Addr, "reply", reply)
	return reply, nil
}
