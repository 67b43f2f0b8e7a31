package client

import (
	"context"
	"log/slog"
	"time"

	"pongclient/internal/audio"
	"pongclient/internal/input"
	"pongclient/internal/netwrk"
	"pongclient/internal/pong"
	"pongclient/internal/session"
)

// Frame is everything the presentation layer needs for one tick.
type Frame struct {
	Screen   session.Screen
	Snapshot pong.Snapshot
	Err      string
}

type Presenter interface {
	Render(f Frame)
}

type Config struct {
	Network       netwrk.Options
	FrameInterval time.Duration
	// Wrap, when set, decorates the dispatcher, e.g. to journal traffic.
	Wrap func(netwrk.Handler) netwrk.Handler
}

// App runs the client: the presentation loop on the calling goroutine and,
// while a game is on, the connection's receive and send loops.
type App struct {
	machine *session.Machine
	state   *pong.State
	queue   *netwrk.Outgoing
	handler netwrk.Handler

	view   Presenter
	events <-chan input.Event

	net           netwrk.Options
	frameInterval time.Duration
	dial          func(context.Context, netwrk.Options) (*netwrk.Connection, error)
	log           *slog.Logger
}

func NewApp(cfg Config, view Presenter, player audio.Player, events <-chan input.Event) *App {
	log := cfg.Network.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 17 * time.Millisecond
	}

	a := &App{
		machine:       session.NewMachine(),
		state:         pong.NewState(),
		queue:         &netwrk.Outgoing{},
		view:          view,
		events:        events,
		net:           cfg.Network,
		frameInterval: cfg.FrameInterval,
		dial:          netwrk.Open,
		log:           log,
	}

	var h netwrk.Handler = NewDispatcher(a.state, player, a.queue, log)
	if cfg.Wrap != nil {
		h = cfg.Wrap(h)
	}
	a.handler = h

	a.machine.OnReset(a.state.Reset)
	return a
}

func (a *App) Machine() *session.Machine { return a.machine }
func (a *App) State() *pong.State        { return a.state }

// Run blocks until the player exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	for {
		switch screen := a.machine.Screen(); screen {
		case session.Exiting:
			return nil
		case session.Playing:
			a.play(ctx)
		default:
			a.present(ctx, screen)
		}
	}
}

func (a *App) play(ctx context.Context) {
	a.queue.Reset()

	conn, err := a.dial(ctx, a.net)
	if err != nil {
		a.log.Warn("failed to connect to game server", slog.Any("error", err))
		a.machine.Fire(session.Fault, err.Error())
		return
	}

	loops := conn.StartLoops(a, a.handler, a.queue)
	a.present(ctx, session.Playing)

	switch a.machine.Screen() {
	case session.Exiting, session.GameOver:
		conn.Terminate(a.queue, loops)
	default:
		conn.Close(loops)
	}
}

// present renders screen once per frame until the machine leaves it. The
// screen is checked again after input is handled so a frame is never drawn
// for a screen that is already gone.
func (a *App) present(ctx context.Context, screen session.Screen) {
	ticker := time.NewTicker(a.frameInterval)
	defer ticker.Stop()

	for {
		a.pollInput()
		if a.machine.Screen() != screen {
			return
		}

		snap := a.state.Load()
		if screen == session.Playing && snap.HasWinner() {
			a.machine.Fire(session.WinnerSet, "")
			return
		}

		a.view.Render(Frame{Screen: screen, Snapshot: snap, Err: a.machine.Err()})

		select {
		case <-ticker.C:
		case <-ctx.Done():
			a.machine.Fire(session.Quit, "")
			return
		}
	}
}

func (a *App) pollInput() {
	for {
		select {
		case ev, ok := <-a.events:
			if !ok {
				a.events = nil
				return
			}
			a.HandleInput(ev)
		default:
			return
		}
	}
}

// Active, TransportFailed and ProtocolViolated let the connection loops
// report to the state machine.
func (a *App) Active() bool {
	return a.machine.Active()
}

func (a *App) TransportFailed(msg string) {
	a.machine.Fire(session.Fault, msg)
}

func (a *App) ProtocolViolated(err error) {
	a.machine.Fire(session.Violation, err.Error())
}
