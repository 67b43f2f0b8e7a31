package client

import (
	"pongclient/internal/command"
	"pongclient/internal/input"
	"pongclient/internal/pong"
	"pongclient/internal/session"
)

// HandleInput maps a key event to queued tokens or a screen trigger,
// depending on the active screen.
func (a *App) HandleInput(ev input.Event) {
	screen := a.machine.Screen()

	switch ev.Key {
	case input.KeyEscape, input.KeyQuit:
		if ev.Pressed {
			a.machine.Fire(session.Quit, "")
		}

	case input.KeyReturn:
		if !ev.Pressed || ev.Repeat {
			return
		}
		if screen != session.Playing {
			a.machine.Fire(session.Confirm, "")
			return
		}
		// A spectator can take over a free bat.
		if a.state.Load().Role == pong.RoleSpectator {
			a.queue.Push(command.TakeOver)
		}

	case input.KeyW, input.KeyS:
		if screen != session.Playing || ev.Repeat {
			return
		}
		a.queue.Push(movement(ev))
	}
}

func movement(ev input.Event) string {
	switch {
	case ev.Key == input.KeyW && ev.Pressed:
		return command.WDown
	case ev.Key == input.KeyW:
		return command.WUp
	case ev.Pressed:
		return command.SDown
	}
	return command.SUp
}
