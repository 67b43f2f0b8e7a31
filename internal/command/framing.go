package command

import (
	"bytes"
	"fmt"
	"io"
)

// Framing decides where one parse unit ends.
type Framing int

const (
	// FramingRead treats every socket read as one parse unit. This is what
	// the game server speaks: it writes bare text with no terminator.
	FramingRead Framing = iota
	// FramingLine expects every message to end with '\n' and carries partial
	// lines over to the next read.
	FramingLine
)

func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "read":
		return FramingRead, nil
	case "line":
		return FramingLine, nil
	}
	return FramingRead, fmt.Errorf("unknown framing %q", s)
}

func (f Framing) String() string {
	if f == FramingLine {
		return "line"
	}
	return "read"
}

// Decoder reads messages off a stream through a fixed size buffer.
// Only the bytes returned by the current read are parsed, so a short read
// never picks up leftovers of a longer one.
type Decoder struct {
	r       io.Reader
	buf     []byte
	framing Framing
	pending []byte
}

func NewDecoder(r io.Reader, size int, framing Framing) *Decoder {
	return &Decoder{
		r:       r,
		buf:     make([]byte, size),
		framing: framing,
	}
}

// Next blocks on one read and returns the messages it completed. Messages
// are returned alongside a read error when the read produced both.
func (d *Decoder) Next() ([]Message, error) {
	n, err := d.r.Read(d.buf)
	if n == 0 && err == nil {
		return []Message{{Name: PeerClosed}}, nil
	}
	if n == 0 {
		return nil, err
	}

	var msgs []Message
	var perr error
	if d.framing == FramingLine {
		msgs, perr = d.lines(d.buf[:n])
	} else {
		if n >= len(d.buf) {
			return nil, fmt.Errorf("%w: read of %d bytes filled the receive buffer", ErrProtocolViolation, n)
		}
		msgs, perr = Parse(d.buf[:n])
	}
	if perr != nil {
		return nil, perr
	}
	return msgs, err
}

func (d *Decoder) lines(chunk []byte) ([]Message, error) {
	d.pending = append(d.pending, chunk...)

	var msgs []Message
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]
		if len(bytes.Trim(line, Delimiter+"\r")) == 0 {
			continue
		}
		parsed, err := Parse(line)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, parsed...)
	}

	if len(d.pending) >= len(d.buf) {
		return nil, fmt.Errorf("%w: unterminated line longer than %d bytes", ErrProtocolViolation, len(d.buf))
	}
	d.pending = append([]byte(nil), d.pending...)
	return msgs, nil
}

// Encoder writes batches in the same framing the Decoder expects.
type Encoder struct {
	w       io.Writer
	framing Framing
}

func NewEncoder(w io.Writer, framing Framing) *Encoder {
	return &Encoder{w: w, framing: framing}
}

// Encode writes payload as one message.
func (e *Encoder) Encode(payload []byte) error {
	if e.framing == FramingLine {
		payload = append(payload, '\n')
	}
	_, err := e.w.Write(payload)
	return err
}
