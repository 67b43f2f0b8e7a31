package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pongclient/internal/ansii"
	"pongclient/internal/audio"
	"pongclient/internal/client"
	"pongclient/internal/command"
	"pongclient/internal/config"
	"pongclient/internal/input"
	"pongclient/internal/journal"
	"pongclient/internal/netwrk"
	"pongclient/internal/renderer"
	"pongclient/internal/status"
)

func main() {
	if len(os.Args) == 1 {
		config.LoadConfig("")
	} else {
		config.LoadConfig(os.Args[1])
	}

	if err := run(config.Config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Configuration) error {
	// The terminal belongs to the game, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	framing, err := command.ParseFraming(cfg.Framing)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := client.Config{
		Network: netwrk.Options{
			Host:           cfg.Host,
			Port:           cfg.Port,
			Transport:      cfg.Transport,
			WSPath:         cfg.WSPath,
			Framing:        framing,
			ReadBufferSize: cfg.ReadBufferSize,
			SendInterval:   cfg.SendInterval(),
			DialTimeout:    cfg.DialTimeout(),
			Logger:         logger,
		},
		FrameInterval: cfg.FrameInterval(),
	}

	if cfg.RecordPath != "" {
		f, err := os.OpenFile(cfg.RecordPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer f.Close()
		appCfg.Wrap = journal.NewRecorder(f, logger).Wrap
	}

	var player audio.Player = audio.Nop{}
	if cfg.Bell {
		bell := audio.NewBell(os.Stdout)
		defer bell.Close()
		player = bell
	}

	stdin := int(os.Stdin.Fd())
	if ansii.IsTerminal(stdin) {
		prev, err := ansii.MakeTermRaw(stdin)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer ansii.RestoreTerm(stdin, prev)
	}

	keyboard := input.NewKeyboard(cfg.KeyRelease())
	go func() {
		if err := keyboard.Run(os.Stdin); err != nil {
			slog.Warn("stopped reading keyboard", slog.Any("error", err))
		}
	}()

	view := renderer.NewTerminal(os.Stdout, func() (int, int, error) {
		return ansii.TermSize(int(os.Stdout.Fd()))
	})
	defer view.Clear()

	app := client.NewApp(appCfg, view, player, keyboard.Events())

	if cfg.StatusAddr != "" {
		go func() {
			if err := status.Serve(ctx, cfg.StatusAddr, app); err != nil {
				slog.Error("status server stopped", slog.Any("error", err))
			}
		}()
	}

	slog.Info("client started", slog.String("server", appCfg.Network.Addr()), slog.String("transport", cfg.Transport))
	return app.Run(ctx)
}
