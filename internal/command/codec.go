package command

import (
	"fmt"
	"strings"
)

// Parse tokenizes one read worth of wire bytes.
//
// Tokens are split on Delimiter and empty tokens are dropped, so the trailing
// delimiter the server puts after GAME_DATA is harmless. A new message starts
// at every line break and at every token that names a known inbound command,
// which splits reads where the server's writes were coalesced. The server
// does not end most commands with a delimiter, so a command name glued to the
// tail of the previous token ("ROLE,1GAME_DATA,...") is split off as well.
// A payload without tokens parses to the PeerClosed sentinel.
func Parse(raw []byte) ([]Message, error) {
	for i, b := range raw {
		if !wireByte(b) {
			return nil, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrProtocolViolation, b, i)
		}
	}

	var msgs []Message
	for _, unit := range strings.FieldsFunc(string(raw), lineBreak) {
		open := false
		for _, tok := range tokens(unit) {
			if _, known := Canonical(tok); !open || known {
				msgs = append(msgs, Message{Name: tok})
				open = true
				continue
			}
			last := len(msgs) - 1
			msgs[last].Args = append(msgs[last].Args, tok)
		}
	}

	if len(msgs) == 0 {
		return []Message{{Name: PeerClosed}}, nil
	}
	return msgs, nil
}

// Serialize joins name and args with Delimiter. There is no trailing
// delimiter.
func Serialize(name string, args ...string) []byte {
	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, name)
	tokens = append(tokens, args...)
	return []byte(strings.Join(tokens, Delimiter))
}

// Batch coalesces queued tokens into a single CLIENT_DATA message, keeping
// their order. It returns nil when there is nothing to send.
func Batch(tokens []string) []byte {
	if len(tokens) == 0 {
		return nil
	}
	return Serialize(BatchMarker, tokens...)
}

func (m Message) String() string {
	return string(Serialize(m.Name, m.Args...))
}

func tokens(unit string) []string {
	var out []string
	for _, tok := range strings.Split(unit, Delimiter) {
		if tok == "" {
			continue
		}
		out = append(out, splitGlued(tok)...)
	}
	return out
}

func splitGlued(tok string) []string {
	cut := -1
	for name := range inbound {
		if i := strings.Index(tok, name); i > 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return []string{tok}
	}
	return append([]string{tok[:cut]}, splitGlued(tok[cut:])...)
}

func lineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

func wireByte(b byte) bool {
	return b == '\n' || b == '\r' || (b >= 0x20 && b <= 0x7e)
}
