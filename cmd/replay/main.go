// Command replay feeds a recorded session journal through a fresh dispatcher
// and prints the resulting game snapshot.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"pongclient/internal/audio"
	"pongclient/internal/client"
	"pongclient/internal/journal"
	"pongclient/internal/netwrk"
	"pongclient/internal/pong"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <journal>")
		os.Exit(2)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := replay(f, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func replay(r io.Reader, w io.Writer) error {
	entries, err := journal.ReadAll(r)
	if err != nil && len(entries) == 0 {
		return err
	}
	if err != nil {
		slog.Warn("journal is truncated, replaying what was read", slog.Any("error", err))
	}

	state := pong.NewState()
	queue := &netwrk.Outgoing{}
	d := client.NewDispatcher(state, audio.Nop{}, queue, slog.Default())

	skipped := 0
	for _, e := range entries {
		if err := d.Handle(e.Message); err != nil {
			skipped++
		}
	}

	s := state.Load()
	fmt.Fprintf(w, "messages: %d (skipped %d)\n", len(entries), skipped)
	if len(entries) > 0 {
		fmt.Fprintf(w, "span:     %s .. %s\n", entries[0].At.Format("15:04:05.000"), entries[len(entries)-1].At.Format("15:04:05.000"))
	}
	fmt.Fprintf(w, "role:     %s\n", s.Role)
	fmt.Fprintf(w, "bats:     %d %d\n", s.Player1Y, s.Player2Y)
	fmt.Fprintf(w, "ball:     %d,%d\n", s.Ball.X, s.Ball.Y)
	fmt.Fprintf(w, "score:    %s - %s\n", s.Score1, s.Score2)
	fmt.Fprintf(w, "winner:   %s\n", s.Winner)
	return nil
}
