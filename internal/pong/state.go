package pong

import (
	"strconv"
	"sync"
	"sync/atomic"
)

type Role int

const (
	RoleUnassigned Role = iota
	RoleOne
	RoleTwo
	RoleSpectator
)

func (r Role) String() string {
	switch r {
	case RoleOne:
		return "Player One"
	case RoleTwo:
		return "Player Two"
	case RoleSpectator:
		return "Spectator"
	}
	return "Unassigned"
}

// ParseRole maps the server's role id (1, 2 or 3) to a Role.
func ParseRole(id string) (Role, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return RoleUnassigned, false
	}
	switch n {
	case 1:
		return RoleOne, true
	case 2:
		return RoleTwo, true
	case 3:
		return RoleSpectator, true
	}
	return RoleUnassigned, false
}

type Vector struct {
	X int
	Y int
}

// Snapshot is the client's copy of the synchronized game state.
// Scores, countdown and winner are kept as the text the server sent.
type Snapshot struct {
	Player1Y  int
	Player2Y  int
	Ball      Vector
	Score1    string
	Score2    string
	Countdown string
	// "0" while the game runs, "1" or "2" once a player has won.
	Winner string
	Role   Role
}

func NewSnapshot() Snapshot {
	return Snapshot{
		Score1:    "0",
		Score2:    "0",
		Countdown: "3",
		Winner:    "0",
		Role:      RoleUnassigned,
	}
}

func (s Snapshot) HasWinner() bool {
	return s.Winner != "0"
}

// State holds the current Snapshot. Readers load the whole snapshot without
// locking; writers build a modified copy and swap it in, so a reader never
// sees a half applied update.
type State struct {
	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]
}

func NewState() *State {
	s := &State{}
	snap := NewSnapshot()
	s.cur.Store(&snap)
	return s
}

func (s *State) Load() Snapshot {
	return *s.cur.Load()
}

// Update applies fn to a copy of the current snapshot and publishes it.
func (s *State) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	fn(&next)
	s.cur.Store(&next)
}

// Reset restores the defaults of a fresh session.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := NewSnapshot()
	s.cur.Store(&snap)
}
