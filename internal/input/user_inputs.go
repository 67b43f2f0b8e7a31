package input

type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyS
	KeyReturn
	KeyEscape
	KeyQuit
)

func (k Key) String() string {
	switch k {
	case KeyW:
		return "w"
	case KeyS:
		return "s"
	case KeyReturn:
		return "return"
	case KeyEscape:
		return "escape"
	case KeyQuit:
		return "quit"
	}
	return "unknown"
}

// Event is one key transition. Repeat marks presses of a key that is already
// held down.
type Event struct {
	Key     Key
	Pressed bool
	Repeat  bool
}

const (
	esc   = 27
	ctrlC = 3
	ctrlD = 4
)

// Decode maps raw terminal bytes to the keys they stand for. Arrow up and
// down count as w and s.
func Decode(raw []byte) []Key {
	var keys []Key
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch {
		case b == esc && i+2 < len(raw) && raw[i+1] == '[':
			switch raw[i+2] {
			case 'A':
				keys = append(keys, KeyW)
			case 'B':
				keys = append(keys, KeyS)
			}
			i += 2
		case b == esc:
			keys = append(keys, KeyEscape)
		case b == 'w' || b == 'W':
			keys = append(keys, KeyW)
		case b == 's' || b == 'S':
			keys = append(keys, KeyS)
		case b == '\r' || b == '\n':
			keys = append(keys, KeyReturn)
		case b == 'q' || b == 'Q' || b == ctrlC || b == ctrlD:
			keys = append(keys, KeyQuit)
		}
	}
	return keys
}
