package renderer

import (
	"io"
	"log/slog"
	"sync"

	"golang.org/x/exp/constraints"

	"pongclient/internal/ansii"
	"pongclient/internal/client"
	"pongclient/internal/pong"
	"pongclient/internal/session"
)

// Dimensions of the server's playfield, in server units.
const (
	WorldWidth  = 800
	WorldHeight = 600
	BatWidth    = 20
	BatHeight   = 60
	BallSize    = 15

	Player1X = WorldWidth / 4
	Player2X = 3*WorldWidth/4 - BatWidth
)

const trailLength = 6

// SizeFunc reports the drawable area in cells.
type SizeFunc func() (width, height int, err error)

// Terminal draws frames with ANSI escapes. It only writes when the frame
// text changes.
type Terminal struct {
	out  io.Writer
	size SizeFunc

	mu    sync.Mutex
	last  string
	trail []pong.Vector
}

func NewTerminal(out io.Writer, size SizeFunc) *Terminal {
	return &Terminal{out: out, size: size}
}

func (t *Terminal) Render(f client.Frame) {
	width, height, err := t.size()
	if err != nil || width <= 0 || height <= 0 {
		slog.Debug("cannot size terminal", slog.Any("error", err))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	canvas := ansii.NewCanvas(width, height)
	switch f.Screen {
	case session.Menu:
		t.trail = t.trail[:0]
		drawMenu(canvas)
	case session.Playing:
		t.track(f.Snapshot.Ball)
		drawGame(canvas, f.Snapshot, t.trail)
	case session.ConnectionError:
		drawError(canvas, f.Err)
	case session.GameOver:
		drawGameOver(canvas, f.Snapshot.Winner)
	default:
		return
	}

	out := canvas.String()
	if out == t.last {
		return
	}
	t.last = out
	if _, err := io.WriteString(t.out, out); err != nil {
		slog.Debug("failed to draw frame", slog.Any("error", err))
	}
}

// Clear resets the terminal to a usable state on exit.
func (t *Terminal) Clear() {
	io.WriteString(t.out, string(ansii.Screen.ClearScreen+ansii.Screen.Home+ansii.Screen.ShowCursor))
}

func (t *Terminal) track(ball pong.Vector) {
	if n := len(t.trail); n > 0 && t.trail[n-1] == ball {
		return
	}
	t.trail = append(t.trail, ball)
	if len(t.trail) > trailLength {
		t.trail = t.trail[1:]
	}
}

func drawMenu(c *ansii.Canvas) {
	c.CenterText(c.Height/6, "Welcome to Pong", ansii.Styles.Bold+ansii.Colors.Cyan)
	c.CenterText(c.Height/2, "Connect to the game server? ENTER to confirm.", ansii.Styles.Plain)
	c.CenterText(c.Height*7/8, "Has a player disconnected? Press ENTER as a spectator to take over.", ansii.Styles.Dim)
	c.CenterText(c.Height-1, "ESC or q to quit", ansii.Styles.Dim)
}

func drawError(c *ansii.Canvas, msg string) {
	c.CenterText(c.Height/6, "ERROR:", ansii.Styles.Bold+ansii.Colors.Red)
	c.CenterText(c.Height/2, msg, ansii.Styles.Plain)
	c.CenterText(c.Height*7/8, "Press ENTER to return to the menu.", ansii.Styles.Dim)
}

func drawGameOver(c *ansii.Canvas, winner string) {
	c.CenterText(c.Height/6, "GAME OVER", ansii.Styles.Bold+ansii.Colors.Yellow)
	c.CenterText(c.Height/2, "Player "+winner+" was the winner!", ansii.Styles.Plain)
	c.CenterText(c.Height*7/8, "Press ENTER to return to the menu.", ansii.Styles.Dim)
}

func drawGame(c *ansii.Canvas, s pong.Snapshot, trail []pong.Vector) {
	for i, p := range trail[:max(len(trail)-1, 0)] {
		style := ansii.Styles.Dim
		if i >= len(trail)/2 {
			style = ansii.Styles.Plain
		}
		c.Pixel(scaleX(c, p.X), scaleY(c, p.Y), ansii.Blocks.Trail, style)
	}

	drawBat(c, Player1X, s.Player1Y, ansii.Colors.Cyan)
	drawBat(c, Player2X, s.Player2Y, ansii.Colors.Purple)
	c.Pixel(scaleX(c, s.Ball.X+BallSize/2), scaleY(c, s.Ball.Y+BallSize/2), ansii.Blocks.Ball, ansii.Colors.White)

	c.Text(scaleX(c, 100), scaleY(c, 100), s.Score1, ansii.Styles.Bold+ansii.Colors.Cyan)
	c.Text(scaleX(c, 700), scaleY(c, 100), s.Score2, ansii.Styles.Bold+ansii.Colors.Purple)
	if s.Countdown != "0" {
		c.CenterText(scaleY(c, 400), s.Countdown, ansii.Styles.Bold+ansii.Colors.Yellow)
	}
	if label := roleLabel(s.Role); label != "" {
		c.CenterText(0, label, ansii.Styles.Bold)
	}
	if s.Role == pong.RoleSpectator {
		c.CenterText(c.Height-1, "ENTER to take over a free bat", ansii.Styles.Dim)
	}
}

func drawBat(c *ansii.Canvas, x, y int, style ansii.ANSI) {
	left, top := scaleX(c, x), scaleY(c, y)
	right, bottom := scaleX(c, x+BatWidth), scaleY(c, y+BatHeight)
	c.FillRect(left, top, max(right-left, 1), max(bottom-top, 1), style)
}

func roleLabel(r pong.Role) string {
	switch r {
	case pong.RoleOne:
		return "Player One"
	case pong.RoleTwo:
		return "Player Two"
	case pong.RoleSpectator:
		return "Spectator"
	}
	return ""
}

func scaleX(c *ansii.Canvas, x int) int {
	return clamp(scale(x, WorldWidth, c.Width), 0, c.Width-1)
}

func scaleY(c *ansii.Canvas, y int) int {
	return clamp(scale(y, WorldHeight, c.Height), 0, c.Height-1)
}

// scale maps v from [0, from) onto [0, to).
func scale[T constraints.Integer | constraints.Float](v, from, to T) T {
	if from == 0 {
		return 0
	}
	return v * to / from
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
