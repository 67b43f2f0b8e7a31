package netwrk

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"pongclient/internal/command"
)

type fakeSupervisor struct {
	active atomic.Bool

	mu         sync.Mutex
	failures   []string
	violations []error
	done       chan struct{}
	once       sync.Once
}

func newSupervisor(active bool) *fakeSupervisor {
	s := &fakeSupervisor{done: make(chan struct{})}
	s.active.Store(active)
	return s
}

func (s *fakeSupervisor) Active() bool { return s.active.Load() }

func (s *fakeSupervisor) TransportFailed(msg string) {
	s.mu.Lock()
	s.failures = append(s.failures, msg)
	s.mu.Unlock()
	s.stop()
}

func (s *fakeSupervisor) ProtocolViolated(err error) {
	s.mu.Lock()
	s.violations = append(s.violations, err)
	s.mu.Unlock()
	s.stop()
}

func (s *fakeSupervisor) stop() {
	s.active.Store(false)
	s.once.Do(func() { close(s.done) })
}

type recorder struct {
	mu   sync.Mutex
	msgs []command.Message
	got  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 64)}
}

func (r *recorder) Handle(msg command.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	r.got <- struct{}{}
	return nil
}

func (r *recorder) messages() []command.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Message(nil), r.msgs...)
}

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

// listen starts a loopback server and returns options pointing at it.
func listen(t *testing.T) (Options, <-chan net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	addr := l.Addr().(*net.TCPAddr)
	return Options{Host: "127.0.0.1", Port: addr.Port}, accepted
}

func accept(t *testing.T, accepted <-chan net.Conn) net.Conn {
	t.Helper()
	select {
	case conn := <-accepted:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
	}
	return nil
}

func TestOpenRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	_, err = Open(context.Background(), Options{Host: "127.0.0.1", Port: port})
	assert.ErrorIs(t, err, ErrConnectFailure)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
}

func TestOpenUnknownTransport(t *testing.T) {
	_, err := Open(context.Background(), Options{Transport: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrConnectFailure)
}

func TestReceiveDispatchesAndReportsDisconnect(t *testing.T) {
	opts, accepted := listen(t)
	c, err := Open(context.Background(), opts)
	require.NoError(t, err)
	server := accept(t, accepted)

	sup := newSupervisor(true)
	rec := newRecorder()
	loops := c.StartLoops(sup, rec, &Outgoing{})

	_, err = server.Write([]byte("ROLE,2"))
	require.NoError(t, err)
	wait(t, rec.got)

	server.Close()
	wait(t, sup.done)

	assert.ErrorIs(t, loops.Receive.Wait(), ErrTransportFailure)
	assert.Equal(t, []command.Message{{Name: command.Role, Args: []string{"2"}}}, rec.messages())
	assert.Equal(t, []string{TerminatedMessage}, sup.failures)
	assert.Equal(t, StateFaulted, c.State())

	c.Close(loops)
	assert.Equal(t, StateClosed, c.State())
}

func TestReceiveOverflowIsViolation(t *testing.T) {
	opts, accepted := listen(t)
	opts.ReadBufferSize = 16
	c, err := Open(context.Background(), opts)
	require.NoError(t, err)
	server := accept(t, accepted)

	sup := newSupervisor(true)
	loops := c.StartLoops(sup, newRecorder(), &Outgoing{})

	_, err = server.Write([]byte(strings.Repeat("GAME_DATA,1,", 8)))
	require.NoError(t, err)
	wait(t, sup.done)

	assert.ErrorIs(t, loops.Receive.Wait(), command.ErrProtocolViolation)
	require.Len(t, sup.violations, 1)
	assert.Empty(t, sup.failures)
	c.Close(loops)
}

func TestSendLoopBatchesQueue(t *testing.T) {
	opts, accepted := listen(t)
	c, err := Open(context.Background(), opts)
	require.NoError(t, err)
	server := accept(t, accepted)

	q := &Outgoing{}
	q.Push(command.WDown, command.WUp)

	sup := newSupervisor(true)
	loops := c.StartLoops(sup, newRecorder(), q)

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "CLIENT_DATA,W_DOWN,W_UP", string(buf[:n]))

	sup.stop()
	c.Terminate(q, loops)
}

func TestTerminateSendsOneFinalMessage(t *testing.T) {
	opts, accepted := listen(t)
	c, err := Open(context.Background(), opts)
	require.NoError(t, err)
	server := accept(t, accepted)

	// The player quit: the loops see an inactive session.
	sup := newSupervisor(false)
	q := &Outgoing{}
	loops := c.StartLoops(sup, newRecorder(), q)
	q.Push(command.WDown, command.SUp)

	received := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(server)
		received <- string(b)
	}()

	c.Terminate(q, loops)

	select {
	case got := <-received:
		assert.Equal(t, "CLIENT_DATA,W_DOWN,S_UP,CON_CLOSE", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection close")
	}
	assert.Equal(t, StateClosed, c.State())
	assert.Zero(t, q.Len())

	// Nothing goes out after the socket is closed.
	q.Push(command.Confirm)
	assert.ErrorIs(t, c.flush(q), net.ErrClosed)
	assert.Empty(t, sup.failures)
}

func TestQuitWhileSendLoopRunsSendsOneFinalMessage(t *testing.T) {
	opts, accepted := listen(t)
	opts.SendInterval = 200 * time.Millisecond
	c, err := Open(context.Background(), opts)
	require.NoError(t, err)
	server := accept(t, accepted)

	sup := newSupervisor(true)
	q := &Outgoing{}
	loops := c.StartLoops(sup, newRecorder(), q)

	received := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(server)
		received <- string(b)
	}()

	// Input queued mid tick, then the player leaves before the tick fires.
	q.Push(command.WDown, command.SUp)
	sup.stop()

	start := time.Now()
	c.Terminate(q, loops)
	assert.Less(t, time.Since(start), opts.SendInterval)

	select {
	case got := <-received:
		assert.Equal(t, "CLIENT_DATA,W_DOWN,S_UP,CON_CLOSE", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection close")
	}
	assert.Empty(t, sup.failures)
}

type noDeadlineConn struct {
	net.Conn
}

func (noDeadlineConn) SetWriteDeadline(time.Time) error {
	return errors.New("deadlines not supported")
}

func TestFlushLogsDeadlineFailure(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewConnection(noDeadlineConn{client}, Options{Logger: logger})
	defer c.shutdown()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		got <- string(buf[:n])
	}()

	q := &Outgoing{}
	q.Push(command.Confirm)
	require.NoError(t, c.flush(q))

	assert.Equal(t, "CLIENT_DATA,CONFIRM", <-got)
	assert.Contains(t, logs.String(), "could not set write deadline")
}

func TestWebsocketTransport(t *testing.T) {
	fromClient := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()

		ctx := r.Context()
		if err := ws.Write(ctx, websocket.MessageText, []byte("CONN_CHECK")); err != nil {
			return
		}
		_, b, err := ws.Read(ctx)
		if err != nil {
			return
		}
		fromClient <- string(b)
	}))
	defer srv.Close()

	addr := srv.Listener.Addr().(*net.TCPAddr)
	c, err := Open(context.Background(), Options{Host: "127.0.0.1", Port: addr.Port, Transport: TransportWebsocket})
	require.NoError(t, err)

	sup := newSupervisor(true)
	q := &Outgoing{}
	rec := newRecorder()
	loops := c.StartLoops(sup, HandlerFunc(func(msg command.Message) error {
		if msg.Name == command.ConnCheck {
			q.Push(command.Confirm)
		}
		return rec.Handle(msg)
	}), q)

	select {
	case got := <-fromClient:
		assert.Equal(t, "CLIENT_DATA,CONFIRM", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply over websocket")
	}

	sup.stop()
	c.Close(loops)
}

func TestOutgoingDrainKeepsLateAppends(t *testing.T) {
	q := &Outgoing{}
	q.Push("A", "B")
	first := q.Drain()
	q.Push("C")

	assert.Equal(t, []string{"A", "B"}, first)
	assert.Equal(t, []string{"C"}, q.Drain())
	assert.Nil(t, q.Drain())
}

func TestOutgoingConcurrentPushNeverLosesTokens(t *testing.T) {
	q := &Outgoing{}
	const writers, each = 4, 250

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Push("T")
			}
		}()
	}

	total := 0
	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()
	for {
		total += len(q.Drain())
		select {
		case <-doneCh:
			total += len(q.Drain())
			assert.Equal(t, writers*each, total)
			return
		default:
		}
	}
}
