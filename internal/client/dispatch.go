package client

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"pongclient/internal/audio"
	"pongclient/internal/command"
	"pongclient/internal/netwrk"
	"pongclient/internal/pong"
)

// Dispatcher applies server commands to the game state. It runs on the
// receive loop and is the only writer of the snapshot during a session.
type Dispatcher struct {
	state *pong.State
	audio audio.Player
	queue *netwrk.Outgoing
	log   *slog.Logger

	// GAME_DATA arrives every server frame; keep a broken stream from
	// flooding the log.
	malformed rate.Sometimes
	unknown   rate.Sometimes
}

func NewDispatcher(state *pong.State, player audio.Player, queue *netwrk.Outgoing, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		state:     state,
		audio:     player,
		queue:     queue,
		log:       log,
		malformed: rate.Sometimes{First: 5, Interval: time.Second},
		unknown:   rate.Sometimes{First: 5, Interval: time.Second},
	}
}

func (d *Dispatcher) Handle(msg command.Message) error {
	if msg.Name != command.GameData {
		d.log.Info("command received", slog.String("command", msg.Name), slog.Any("args", msg.Args))
	}

	name, ok := command.Canonical(msg.Name)
	if !ok {
		d.unknown.Do(func() {
			d.log.Warn("unrecognized command", slog.String("command", msg.Name))
		})
		return nil
	}

	switch name {
	case command.GameData:
		return d.gameData(msg.Args)
	case command.BallHitBat:
		d.audio.Play(audio.BatHit)
	case command.HitWall:
		d.audio.Play(audio.WallHit)
		return d.scores(msg.Args)
	case command.Role:
		return d.role(msg.Args)
	case command.Count:
		return d.countdown(msg.Args)
	case command.ConnCheck:
		d.log.Debug("sending reply to server active check")
		d.queue.Push(command.Confirm)
	}
	return nil
}

func (d *Dispatcher) gameData(args []string) error {
	if len(args) != 5 {
		return d.skip(fmt.Errorf("%w: %s wants 5 args, got %d", command.ErrMalformedCommand, command.GameData, len(args)))
	}

	var pos [4]int
	for i := range pos {
		v, err := coordinate(args[i])
		if err != nil {
			return d.skip(fmt.Errorf("%w: %s arg %d: %v", command.ErrMalformedCommand, command.GameData, i, err))
		}
		pos[i] = v
	}

	d.state.Update(func(s *pong.Snapshot) {
		s.Player1Y = pos[0]
		s.Player2Y = pos[1]
		s.Ball = pong.Vector{X: pos[2], Y: pos[3]}
		switch args[4] {
		case "1WIN":
			s.Winner = "1"
		case "2WIN":
			s.Winner = "2"
		}
	})
	return nil
}

func (d *Dispatcher) scores(args []string) error {
	if len(args) != 2 {
		return d.skip(fmt.Errorf("%w: %s wants 2 args, got %d", command.ErrMalformedCommand, command.HitWall, len(args)))
	}
	d.state.Update(func(s *pong.Snapshot) {
		s.Score1 = args[0]
		s.Score2 = args[1]
	})
	return nil
}

func (d *Dispatcher) role(args []string) error {
	if len(args) != 1 {
		return d.skip(fmt.Errorf("%w: %s wants 1 arg, got %d", command.ErrMalformedCommand, command.Role, len(args)))
	}
	role, ok := pong.ParseRole(args[0])
	if !ok {
		d.log.Error("error assigning client role", slog.String("role", args[0]))
		return fmt.Errorf("%w: unknown role %q", command.ErrMalformedCommand, args[0])
	}
	d.state.Update(func(s *pong.Snapshot) {
		s.Role = role
	})
	return nil
}

func (d *Dispatcher) countdown(args []string) error {
	if len(args) != 1 {
		return d.skip(fmt.Errorf("%w: %s wants 1 arg, got %d", command.ErrMalformedCommand, command.Count, len(args)))
	}
	d.state.Update(func(s *pong.Snapshot) {
		s.Countdown = args[0]
	})
	d.audio.Play(audio.CountdownTick)
	return nil
}

func (d *Dispatcher) skip(err error) error {
	d.malformed.Do(func() {
		d.log.Warn("skipped malformed command", slog.Any("error", err))
	})
	return err
}

// coordinate reads a position. The server prints doubles ("292.5"); the
// fraction is dropped.
func coordinate(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("coordinate %q out of range", s)
	}
	return int(f), nil
}
