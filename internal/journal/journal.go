// Package journal records inbound game traffic so a session can be replayed
// offline.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"

	"pongclient/internal/command"
	"pongclient/internal/netwrk"
)

var ErrCorruptEntry = errors.New("corrupt journal entry")

type Entry struct {
	At      time.Time
	Message command.Message
}

// Recorder appends every message that passes through it to w, one
// length delimited structpb.Struct per message.
type Recorder struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
	log *slog.Logger
}

func NewRecorder(w io.Writer, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{w: w, now: time.Now, log: log}
}

// Wrap records each message before passing it on to next. A failed write
// is logged and never stops the game.
func (r *Recorder) Wrap(next netwrk.Handler) netwrk.Handler {
	return netwrk.HandlerFunc(func(msg command.Message) error {
		if err := r.Record(msg); err != nil {
			r.log.Warn("failed to journal message", slog.String("command", msg.Name), slog.Any("error", err))
		}
		return next.Handle(msg)
	})
}

func (r *Recorder) Record(msg command.Message) error {
	entry, err := encode(Entry{At: r.now(), Message: msg})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = protodelim.MarshalTo(r.w, entry)
	return err
}

func encode(e Entry) (*structpb.Struct, error) {
	args := make([]any, len(e.Message.Args))
	for i, a := range e.Message.Args {
		args[i] = a
	}
	return structpb.NewStruct(map[string]any{
		"name": e.Message.Name,
		"args": args,
		"at":   e.At.UTC().Format(time.RFC3339Nano),
	})
}

func decode(s *structpb.Struct) (Entry, error) {
	fields := s.GetFields()

	name := fields["name"].GetStringValue()
	if name == "" {
		return Entry{}, fmt.Errorf("%w: missing name", ErrCorruptEntry)
	}
	at, err := time.Parse(time.RFC3339Nano, fields["at"].GetStringValue())
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	var args []string
	for _, v := range fields["args"].GetListValue().GetValues() {
		args = append(args, v.GetStringValue())
	}
	return Entry{At: at, Message: command.Message{Name: name, Args: args}}, nil
}

// ReadAll decodes a journal written by Recorder.
func ReadAll(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)

	var entries []Entry
	for {
		s := &structpb.Struct{}
		if err := protodelim.UnmarshalFrom(br, s); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
		}

		e, err := decode(s)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}
