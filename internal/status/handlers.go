package status

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pongclient/internal/pong"
)

type snapshotBody struct {
	Player1Y  int    `json:"player1Y"`
	Player2Y  int    `json:"player2Y"`
	BallX     int    `json:"ballX"`
	BallY     int    `json:"ballY"`
	Score1    string `json:"score1"`
	Score2    string `json:"score2"`
	Countdown string `json:"countdown"`
	Winner    string `json:"winner"`
}

type statusBody struct {
	Screen   string       `json:"screen"`
	Error    string       `json:"error,omitempty"`
	Role     string       `json:"role"`
	Snapshot snapshotBody `json:"snapshot"`
}

func newStatusBody(src Source) statusBody {
	m := src.Machine()
	s := src.State().Load()
	return statusBody{
		Screen:   m.Screen().String(),
		Error:    m.Err(),
		Role:     s.Role.String(),
		Snapshot: newSnapshotBody(s),
	}
}

func newSnapshotBody(s pong.Snapshot) snapshotBody {
	return snapshotBody{
		Player1Y:  s.Player1Y,
		Player2Y:  s.Player2Y,
		BallX:     s.Ball.X,
		BallY:     s.Ball.Y,
		Score1:    s.Score1,
		Score2:    s.Score2,
		Countdown: s.Countdown,
		Winner:    s.Winner,
	}
}

func Status(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(newStatusBody(src)); err != nil {
			slog.Warn("failed to write status response", slog.Any("error", err))
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
