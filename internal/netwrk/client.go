package netwrk

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"pongclient/internal/command"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFaulted:
		return "faulted"
	}
	return "closed"
}

const (
	TransportTCP       = "tcp"
	TransportWebsocket = "ws"
)

type Options struct {
	Host      string
	Port      int
	Transport string
	// Request path used by the websocket transport.
	WSPath         string
	Framing        command.Framing
	ReadBufferSize int
	SendInterval   time.Duration
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	Logger         *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = "localhost"
	}
	if o.Port == 0 {
		o.Port = 55555
	}
	if o.Transport == "" {
		o.Transport = TransportTCP
	}
	if o.WSPath == "" {
		o.WSPath = "/"
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = 1024
	}
	if o.SendInterval <= 0 {
		o.SendInterval = time.Millisecond
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 3 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Connection is one game session's stream to the server.
type Connection struct {
	ID uuid.UUID

	conn    net.Conn
	opts    Options
	dec     *command.Decoder
	enc     *command.Encoder
	log     *slog.Logger
	release context.CancelFunc

	wmu     sync.Mutex
	state   atomic.Int32
	closing atomic.Bool
}

// Open resolves the server address and connects. It never retries; the
// returned error wraps ErrConnectFailure and reads well on screen.
func Open(ctx context.Context, opts Options) (*Connection, error) {
	opts = opts.withDefaults()

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	var (
		conn    net.Conn
		release context.CancelFunc = func() {}
		err     error
	)
	switch opts.Transport {
	case TransportWebsocket:
		conn, release, err = dialWebsocket(dialCtx, opts)
	case TransportTCP:
		conn, err = dialTCP(dialCtx, opts)
	default:
		err = fmt.Errorf("unsupported transport %q", opts.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailure, err)
	}

	c := NewConnection(conn, opts)
	c.release = release
	c.log.Info("connected to game server", slog.String("addr", opts.Addr()), slog.String("transport", opts.Transport))
	return c, nil
}

func dialTCP(ctx context.Context, opts Options) (net.Conn, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, opts.Host)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s: %w", opts.Host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("could not resolve %s", opts.Host)
	}

	var d net.Dialer
	addr := net.JoinHostPort(ips[0].String(), strconv.Itoa(opts.Port))
	return d.DialContext(ctx, "tcp", addr)
}

func dialWebsocket(ctx context.Context, opts Options) (net.Conn, context.CancelFunc, error) {
	url := fmt.Sprintf("ws://%s%s", opts.Addr(), opts.WSPath)
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, nil, err
	}

	// The net.Conn adapter lives as long as this context, not the dial one.
	connCtx, release := context.WithCancel(context.Background())
	return websocket.NetConn(connCtx, ws, websocket.MessageText), release, nil
}

// NewConnection wraps an established stream.
func NewConnection(conn net.Conn, opts Options) *Connection {
	opts = opts.withDefaults()
	id := uuid.New()
	c := &Connection{
		ID:      id,
		conn:    conn,
		opts:    opts,
		dec:     command.NewDecoder(conn, opts.ReadBufferSize, opts.Framing),
		enc:     command.NewEncoder(conn, opts.Framing),
		log:     opts.Logger.With(slog.String("session", id.String())),
		release: func() {},
	}
	c.state.Store(int32(StateOpen))
	return c
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

// flush drains q and writes everything as one batch. Holding the write lock
// across drain and write keeps batches in queue order.
func (c *Connection) flush(q *Outgoing) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.closing.Load() {
		return net.ErrClosed
	}

	payload := command.Batch(q.Drain())
	if payload == nil {
		return nil
	}

	c.log.Debug("writing egress message to server", slog.String("message", string(payload)))
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		c.log.Debug("could not set write deadline", slog.Any("error", err))
	}
	if err := c.enc.Encode(payload); err != nil {
		c.state.Store(int32(StateFaulted))
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return nil
}

func (c *Connection) shutdown() {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.closing.Swap(true) {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.log.Debug("error closing game connection", slog.Any("error", err))
	}
	c.release()
	c.state.Store(int32(StateClosed))
}
