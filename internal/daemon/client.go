package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// ErrConnectionClosed is returned when the daemon hangs up.
var ErrConnectionClosed = errors.New("connection closed")

// Client is one connection to `minutes serve`. The TUI keeps two: one for
// request/response commands and one that subscribes and only reads events.
type Client struct {
	conn net.Conn
	in   *bufio.Scanner
	mu   sync.Mutex
}

// Connect opens a connection to the daemon listening on socketPath.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn, in: newScanner(conn)}, nil
}

// Close hangs up. A subscribed connection stops receiving events.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SendCommand writes cmd and waits for its response. Calls are serialized,
// so responses never interleave.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeLine(c.conn, cmd); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", cmd.Cmd, err)
	}
	return readLine[Response](c.in, "response")
}

// ReadEvent blocks for the next session event on a subscribed connection.
func (c *Client) ReadEvent() (Event, error) {
	return readLine[Event](c.in, "event")
}

func readLine[T any](in *bufio.Scanner, what string) (T, error) {
	var v T
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return v, fmt.Errorf("read %s: %w", what, err)
		}
		return v, ErrConnectionClosed
	}
	if err := json.Unmarshal(in.Bytes(), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", what, err)
	}
	return v, nil
}

// Full transcripts travel in a single line.
func newScanner(conn net.Conn) *bufio.Scanner {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return scanner
}

func writeLine(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}
