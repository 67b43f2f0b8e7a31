package ansii

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

type ANSI string

const (
	reset       ANSI = "\033[0m"
	plain       ANSI = ""
	bold        ANSI = "\033[1m"
	dim         ANSI = "\033[2m"
	red         ANSI = "\033[31m"
	green       ANSI = "\033[32m"
	yellow      ANSI = "\033[33m"
	purple      ANSI = "\033[35m"
	cyan        ANSI = "\033[36m"
	white       ANSI = "\033[37m"
	clearScreen ANSI = "\033[2J"
	home        ANSI = "\033[H"
	hideCursor  ANSI = "\033[?25l"
	showCursor  ANSI = "\033[?25h"
)

type style struct {
	Reset ANSI
	Plain ANSI
	Bold  ANSI
	Dim   ANSI
}

type color struct {
	Red    ANSI
	Green  ANSI
	Yellow ANSI
	Purple ANSI
	Cyan   ANSI
	White  ANSI
}

type screen struct {
	ClearScreen ANSI
	Home        ANSI
	HideCursor  ANSI
	ShowCursor  ANSI
}

type ascii struct {
	Block string
	Ball  string
	Trail string
}

var (
	Styles = style{Reset: reset, Plain: plain, Bold: bold, Dim: dim}
	Colors = color{Red: red, Green: green, Yellow: yellow, Purple: purple, Cyan: cyan, White: white}
	Screen = screen{ClearScreen: clearScreen, Home: home, HideCursor: hideCursor, ShowCursor: showCursor}
	Blocks = ascii{Block: "█", Ball: "●", Trail: "·"}
)

// PlaceCursor moves to the zero based cell (x, y).
func (s screen) PlaceCursor(x, y int) ANSI {
	return ANSI(fmt.Sprintf("\033[%d;%dH", y+1, x+1))
}

func TermSize(fd int) (width int, height int, err error) {
	return term.GetSize(fd)
}

func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

func MakeTermRaw(fd int) (*term.State, error) {
	return term.MakeRaw(fd)
}

func RestoreTerm(fd int, prev *term.State) error {
	return term.Restore(fd, prev)
}

// Canvas collects the escape sequences for one frame. Cells outside
// Width x Height are clipped.
type Canvas struct {
	Width  int
	Height int

	builder strings.Builder
}

func NewCanvas(width, height int) *Canvas {
	c := &Canvas{Width: width, Height: height}
	c.builder.WriteString(string(Screen.HideCursor + Screen.ClearScreen + Screen.Home))
	return c
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Width && y < c.Height
}

func (c *Canvas) Pixel(x, y int, glyph string, style ANSI) {
	if !c.inside(x, y) {
		return
	}
	c.builder.WriteString(string(Screen.PlaceCursor(x, y) + style))
	c.builder.WriteString(glyph)
	c.builder.WriteString(string(Styles.Reset))
}

// FillRect draws a solid block with its top left cell at (x, y).
func (c *Canvas) FillRect(x, y, width, height int, style ANSI) {
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			c.Pixel(x+col, y+row, Blocks.Block, style)
		}
	}
}

// Text writes s starting at (x, y), cut at the right edge.
func (c *Canvas) Text(x, y int, s string, style ANSI) {
	if y < 0 || y >= c.Height {
		return
	}
	for _, r := range s {
		if x >= c.Width {
			return
		}
		if x >= 0 {
			c.Pixel(x, y, string(r), style)
		}
		x++
	}
}

// CenterText writes s centred on row y.
func (c *Canvas) CenterText(y int, s string, style ANSI) {
	c.Text((c.Width-utf8.RuneCountInString(s))/2, y, s, style)
}

func (c *Canvas) String() string {
	return c.builder.String()
}
