package netwrk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pongclient/internal/command"
)

// Supervisor is the loops' view of the session: whether they should keep
// running and where to report failures.
type Supervisor interface {
	Active() bool
	TransportFailed(msg string)
	ProtocolViolated(err error)
}

// Handler consumes every parsed inbound message. Returned errors are logged
// and never stop the receive loop.
type Handler interface {
	Handle(msg command.Message) error
}

type HandlerFunc func(msg command.Message) error

func (f HandlerFunc) Handle(msg command.Message) error {
	return f(msg)
}

// Handle is a running loop.
type Handle struct {
	g errgroup.Group
}

func spawn(fn func() error) *Handle {
	h := &Handle{}
	h.g.Go(fn)
	return h
}

// Wait blocks until the loop has returned.
func (h *Handle) Wait() error {
	return h.g.Wait()
}

type Loops struct {
	Receive *Handle
	Send    *Handle

	stop     chan struct{}
	stopOnce sync.Once
}

// halt wakes the send loop so it returns without waiting for its next tick.
func (l *Loops) halt() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Loops) Wait() error {
	return errors.Join(l.Receive.Wait(), l.Send.Wait())
}

// StartLoops runs the receive and send loops over c. Both return once
// sup.Active reports false.
func (c *Connection) StartLoops(sup Supervisor, h Handler, q *Outgoing) *Loops {
	stop := make(chan struct{})
	return &Loops{
		Receive: spawn(func() error { return c.receive(sup, h) }),
		Send:    spawn(func() error { return c.send(sup, q, stop) }),
		stop:    stop,
	}
}

// Network reader
func (c *Connection) receive(sup Supervisor, h Handler) error {
	for {
		msgs, err := c.dec.Next()
		for _, msg := range msgs {
			if msg.Name == command.PeerClosed {
				err = ErrPeerClosed
				break
			}
			if herr := h.Handle(msg); herr != nil {
				c.log.Debug("skipped inbound command", slog.String("command", msg.Name), slog.Any("error", herr))
			}
		}

		if err != nil {
			if errors.Is(err, command.ErrProtocolViolation) {
				c.state.Store(int32(StateFaulted))
				c.log.Error("unrecoverable protocol violation", slog.Any("error", err))
				sup.ProtocolViolated(err)
				return err
			}
			if c.closing.Load() || !sup.Active() {
				return nil
			}
			c.state.Store(int32(StateFaulted))
			c.log.Warn("failed to read from game connection", slog.Any("error", err))
			sup.TransportFailed(TerminatedMessage)
			return fmt.Errorf("%w: %v", ErrTransportFailure, err)
		}

		if !sup.Active() {
			return nil
		}
	}
}

// Network writer
func (c *Connection) send(sup Supervisor, q *Outgoing, stop <-chan struct{}) error {
	ticker := time.NewTicker(c.opts.SendInterval)
	defer ticker.Stop()

	for sup.Active() {
		select {
		case <-ticker.C:
		case <-stop:
			return nil
		}
		// Whatever was queued before the player left goes out with the
		// farewell batch.
		if !sup.Active() {
			return nil
		}
		if err := c.flush(q); err != nil {
			if c.closing.Load() || !sup.Active() {
				return nil
			}
			c.log.Warn("failed to write to game connection", slog.Any("error", err))
			sup.TransportFailed(TerminatedMessage)
			return err
		}
	}
	return nil
}

// Terminate ends a session the player chose to leave. It must only be called
// once sup.Active is false: it waits for the send loop to stop, sends the
// remaining queue followed by CON_CLOSE in one message, then closes the
// socket. A failing farewell is logged only.
func (c *Connection) Terminate(q *Outgoing, loops *Loops) {
	if loops != nil {
		loops.halt()
		loops.Send.Wait()
	}

	q.Push(command.ConClose)
	if err := c.flush(q); err != nil {
		c.log.Debug("final send failed", slog.Any("error", err))
	}
	c.shutdown()

	if loops != nil {
		loops.Receive.Wait()
	}
	c.log.Info("game connection terminated")
}

// Close drops a session without the farewell message, e.g. after the stream
// already failed.
func (c *Connection) Close(loops *Loops) {
	if loops != nil {
		loops.halt()
		loops.Send.Wait()
	}
	c.shutdown()
	if loops != nil {
		loops.Receive.Wait()
	}
	c.log.Info("game connection closed")
}
