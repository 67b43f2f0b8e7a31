package audio

import (
	"io"
	"log/slog"
)

type Effect int

const (
	BatHit Effect = iota
	WallHit
	CountdownTick
)

func (e Effect) String() string {
	switch e {
	case BatHit:
		return "bat_hit"
	case WallHit:
		return "wall_hit"
	case CountdownTick:
		return "countdown_tick"
	}
	return "unknown"
}

// Player plays sound effects. Play must return immediately.
type Player interface {
	Play(e Effect)
}

type Nop struct{}

func (Nop) Play(Effect) {}

// Bell rings the terminal bell for every effect. Effects are handed to a
// single writer goroutine; when it falls behind, new effects are dropped.
type Bell struct {
	effects chan Effect
	done    chan struct{}
}

func NewBell(w io.Writer) *Bell {
	b := &Bell{
		effects: make(chan Effect, 8),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		for e := range b.effects {
			if _, err := w.Write([]byte{'\a'}); err != nil {
				slog.Debug("failed to ring bell", slog.Any("effect", e), slog.Any("error", err))
			}
		}
	}()
	return b
}

func (b *Bell) Play(e Effect) {
	select {
	case b.effects <- e:
	default:
	}
}

// Close stops the writer after the queued effects have played.
func (b *Bell) Close() {
	close(b.effects)
	<-b.done
}
