package session

import (
	"log/slog"
	"sync"
)

type Screen int

const (
	Menu Screen = iota
	Playing
	ConnectionError
	GameOver
	Exiting
)

func (s Screen) String() string {
	switch s {
	case Menu:
		return "menu"
	case Playing:
		return "playing"
	case ConnectionError:
		return "connection_error"
	case GameOver:
		return "game_over"
	case Exiting:
		return "exiting"
	}
	return "unknown"
}

// Trigger is what asks for a screen change: user input, the network loops or
// the presentation loop.
type Trigger int

const (
	Confirm Trigger = iota
	WinnerSet
	Fault
	Quit
	Violation
)

func (t Trigger) String() string {
	switch t {
	case Confirm:
		return "confirm"
	case WinnerSet:
		return "winner_set"
	case Fault:
		return "fault"
	case Quit:
		return "quit"
	case Violation:
		return "violation"
	}
	return "unknown"
}

type Transition struct {
	From Screen
	To   Screen
}

// Machine owns the active screen. Fire is the only way to change it and may
// be called from any goroutine.
type Machine struct {
	mu      sync.Mutex
	screen  Screen
	errMsg  string
	onReset []func()
}

func NewMachine() *Machine {
	return &Machine{screen: Menu}
}

// OnReset registers fn to run whenever the machine returns to Menu after a
// session ended.
func (m *Machine) OnReset(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReset = append(m.onReset, fn)
}

func (m *Machine) Screen() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screen
}

// Active reports whether the network loops should keep running.
func (m *Machine) Active() bool {
	return m.Screen() == Playing
}

// Err is the message shown on the ConnectionError screen.
func (m *Machine) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Fire applies t and reports whether the screen changed. Triggers that are
// not valid for the current screen are ignored.
func (m *Machine) Fire(t Trigger, msg string) (Transition, bool) {
	m.mu.Lock()
	from := m.screen
	to, ok := next(from, t)
	if !ok {
		m.mu.Unlock()
		slog.Debug("ignored screen trigger", slog.Any("screen", from), slog.Any("trigger", t))
		return Transition{From: from, To: from}, false
	}

	m.screen = to
	var hooks []func()
	switch {
	case to == ConnectionError:
		m.errMsg = msg
	case to == Menu:
		m.errMsg = ""
		hooks = append(hooks, m.onReset...)
	}
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	slog.Info("screen changed", slog.Any("from", from), slog.Any("to", to), slog.Any("trigger", t))
	return Transition{From: from, To: to}, true
}

func next(from Screen, t Trigger) (Screen, bool) {
	if from == Exiting {
		return from, false
	}
	switch t {
	case Quit, Violation:
		return Exiting, true
	case Confirm:
		switch from {
		case Menu:
			return Playing, true
		case ConnectionError, GameOver:
			return Menu, true
		}
	case WinnerSet:
		if from == Playing {
			return GameOver, true
		}
	case Fault:
		// Leaving Playing on purpose (quit, game over) must not be reported
		// as a broken connection.
		if from == Playing {
			return ConnectionError, true
		}
	}
	return from, false
}
