// Package inbox receives dashboard commands from other processes.
//
// The inbox is a unix datagram socket. Each datagram is either a bare
// command payload (one JSON object or an array) or a full response blob
// with the command sentinels, exactly what the model would produce.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/protocol"
)

const defaultMaxPayloadBytes = 64 * 1024

// DefaultSocketPath returns the per-user inbox socket path.
func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "dashgen", "commands.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("dashgen-%d", os.Getuid()), "commands.sock")
}

// Inbox listens for command datagrams and hands decoded commands to Deliver.
type Inbox struct {
	path    string
	deliver func([]protocol.Command)

	MaxPayloadBytes int

	mu     sync.Mutex
	conn   *net.UnixConn
	closed bool
}

// New creates an inbox on socketPath. deliver is called from the read
// goroutine, once per datagram that carries at least one command.
func New(socketPath string, deliver func([]protocol.Command)) *Inbox {
	return &Inbox{
		path:            socketPath,
		deliver:         deliver,
		MaxPayloadBytes: defaultMaxPayloadBytes,
	}
}

// SocketPath returns the path the inbox binds.
func (in *Inbox) SocketPath() string {
	return in.path
}

// Start binds the socket and reads until ctx is cancelled.
func (in *Inbox) Start(ctx context.Context) error {
	if in.deliver == nil {
		return fmt.Errorf("deliver callback is required")
	}
	if in.path == "" {
		return fmt.Errorf("socket path is required")
	}
	if in.MaxPayloadBytes <= 0 {
		in.MaxPayloadBytes = defaultMaxPayloadBytes
	}

	if err := os.MkdirAll(filepath.Dir(in.path), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(in.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", in.path)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen unixgram: %w", err)
	}
	if err := os.Chmod(in.path, 0o600); err != nil {
		_ = conn.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	in.mu.Lock()
	in.conn = conn
	in.closed = false
	in.mu.Unlock()

	go func() {
		<-ctx.Done()
		in.Close()
	}()

	go in.readLoop(conn)

	return nil
}

func (in *Inbox) readLoop(conn *net.UnixConn) {
	buf := make([]byte, in.MaxPayloadBytes)
	for {
		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			if in.isClosed() {
				return
			}
			continue
		}

		if n <= 0 || n >= in.MaxPayloadBytes {
			logger.Debug("inbox: dropped datagram", "bytes", n)
			continue
		}

		cmds, err := protocol.Extract(buf[:n])
		if err != nil {
			logger.Debug("inbox: undecodable datagram", "error", err)
			continue
		}
		if len(cmds) == 0 {
			continue
		}
		in.deliver(cmds)
	}
}

func (in *Inbox) isClosed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

// Close stops the inbox and removes its socket.
func (in *Inbox) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.closed = true
	if in.conn != nil {
		_ = in.conn.Close()
		in.conn = nil
		_ = os.Remove(in.path)
	}
}

// Send writes one datagram to the inbox at socketPath.
func Send(socketPath string, payload []byte) error {
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return fmt.Errorf("dial inbox %s: %w", socketPath, err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write datagram: %w", err)
	}
	return nil
}
