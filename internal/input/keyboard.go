package input

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Keyboard turns terminal input into key events. Terminals only report
// presses, so a held key is released once no repeat arrived for the release
// delay.
type Keyboard struct {
	events  chan Event
	release time.Duration

	mu   sync.Mutex
	held map[Key]*time.Timer
}

func NewKeyboard(release time.Duration) *Keyboard {
	return &Keyboard{
		events:  make(chan Event, 256),
		release: release,
		held:    map[Key]*time.Timer{},
	}
}

func (k *Keyboard) Events() <-chan Event {
	return k.events
}

// Feed decodes raw and emits the resulting events.
func (k *Keyboard) Feed(raw []byte) {
	for _, key := range Decode(raw) {
		if key != KeyW && key != KeyS {
			k.emit(Event{Key: key, Pressed: true})
			k.emit(Event{Key: key})
			continue
		}
		k.press(key)
	}
}

func (k *Keyboard) press(key Key) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if t, ok := k.held[key]; ok {
		t.Reset(k.release)
		k.emit(Event{Key: key, Pressed: true, Repeat: true})
		return
	}

	k.emit(Event{Key: key, Pressed: true})
	var t *time.Timer
	t = time.AfterFunc(k.release, func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		// A Reset racing with the first expiry fires once more.
		if k.held[key] != t {
			return
		}
		delete(k.held, key)
		k.emit(Event{Key: key})
	})
	k.held[key] = t
}

func (k *Keyboard) emit(ev Event) {
	select {
	case k.events <- ev:
	default:
		slog.Debug("dropped input event", slog.Any("key", ev.Key))
	}
}

// Run feeds everything read from r until it fails.
func (k *Keyboard) Run(r io.Reader) error {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			k.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			k.emit(Event{Key: KeyQuit, Pressed: true})
			return nil
		}
		if err != nil {
			return err
		}
	}
}
