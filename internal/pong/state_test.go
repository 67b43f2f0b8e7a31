package pong

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState()

	want := Snapshot{Score1: "0", Score2: "0", Countdown: "3", Winner: "0", Role: RoleUnassigned}
	if diff := cmp.Diff(want, s.Load()); diff != "" {
		t.Errorf("default snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.Load().HasWinner())
}

func TestUpdateAndReset(t *testing.T) {
	s := NewState()
	s.Update(func(snap *Snapshot) {
		snap.Player1Y = 100
		snap.Ball = Vector{X: 50, Y: 60}
		snap.Winner = "2"
		snap.Role = RoleTwo
	})

	got := s.Load()
	assert.Equal(t, 100, got.Player1Y)
	assert.Equal(t, Vector{X: 50, Y: 60}, got.Ball)
	assert.True(t, got.HasWinner())

	s.Reset()
	if diff := cmp.Diff(NewSnapshot(), s.Load()); diff != "" {
		t.Errorf("reset snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadedSnapshotIsACopy(t *testing.T) {
	s := NewState()
	snap := s.Load()
	snap.Score1 = "9"

	assert.Equal(t, "0", s.Load().Score1)
}

func TestReadersNeverSeeTornUpdates(t *testing.T) {
	s := NewState()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Update(func(snap *Snapshot) {
				snap.Player1Y = i
				snap.Player2Y = i
			})
		}
	}()

	for i := 0; i < 1000; i++ {
		snap := s.Load()
		if snap.Player1Y != snap.Player2Y {
			t.Fatalf("torn snapshot: %d != %d", snap.Player1Y, snap.Player2Y)
		}
	}
	wg.Wait()
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		id   string
		want Role
		ok   bool
	}{
		{id: "1", want: RoleOne, ok: true},
		{id: "2", want: RoleTwo, ok: true},
		{id: "3", want: RoleSpectator, ok: true},
		{id: "7", want: RoleUnassigned, ok: false},
		{id: "two", want: RoleUnassigned, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got, ok := ParseRole(tc.id)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
