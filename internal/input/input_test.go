package input

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []Key
	}{
		{name: "letters", raw: "wWsS", want: []Key{KeyW, KeyW, KeyS, KeyS}},
		{name: "arrows", raw: "\x1b[A\x1b[B", want: []Key{KeyW, KeyS}},
		{name: "other arrow ignored", raw: "\x1b[C", want: nil},
		{name: "enter", raw: "\r", want: []Key{KeyReturn}},
		{name: "escape", raw: "\x1b", want: []Key{KeyEscape}},
		{name: "quit", raw: "q\x03", want: []Key{KeyQuit, KeyQuit}},
		{name: "noise", raw: "xyz", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decode([]byte(tc.raw)))
		})
	}
}

func next(t *testing.T, k *Keyboard) Event {
	t.Helper()
	select {
	case ev := <-k.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no input event")
	}
	return Event{}
}

func TestKeyboardSynthesizesRelease(t *testing.T) {
	k := NewKeyboard(20 * time.Millisecond)
	k.Feed([]byte("w"))
	k.Feed([]byte("w"))

	assert.Equal(t, Event{Key: KeyW, Pressed: true}, next(t, k))
	assert.Equal(t, Event{Key: KeyW, Pressed: true, Repeat: true}, next(t, k))
	assert.Equal(t, Event{Key: KeyW}, next(t, k))
}

func TestKeyboardTapsReturn(t *testing.T) {
	k := NewKeyboard(time.Hour)
	k.Feed([]byte("\r"))

	assert.Equal(t, Event{Key: KeyReturn, Pressed: true}, next(t, k))
	assert.Equal(t, Event{Key: KeyReturn}, next(t, k))
}

func TestKeyboardRunQuitsOnEOF(t *testing.T) {
	k := NewKeyboard(time.Hour)
	require.NoError(t, k.Run(strings.NewReader("\r")))

	assert.Equal(t, KeyReturn, next(t, k).Key)
	assert.Equal(t, KeyReturn, next(t, k).Key)
	assert.Equal(t, Event{Key: KeyQuit, Pressed: true}, next(t, k))
}
