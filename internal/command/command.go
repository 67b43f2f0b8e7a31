package command

import "strings"

// Delimiter separates every token on the wire.
const Delimiter = ","

// Commands sent by the server.
const (
	GameData   = "GAME_DATA"
	BallHitBat = "BALL_HIT_BAT"
	HitWall    = "HIT_WALL"
	Role       = "ROLE"
	Count      = "COUNT"
	ConnCheck  = "CONN_CHECK"
)

// PeerClosed is produced by the parser for a payload without a single token.
const PeerClosed = "CLOSING"

// Tokens sent by the client. Everything queued in one send tick goes out
// behind BatchMarker.
const (
	BatchMarker = "CLIENT_DATA"
	WDown       = "W_DOWN"
	WUp         = "W_UP"
	SDown       = "S_DOWN"
	SUp         = "S_UP"
	TakeOver    = "TAKE_OVER"
	Confirm     = "CONFIRM"
	ConClose    = "CON_CLOSE"
)

var inbound = map[string]bool{
	GameData:   true,
	BallHitBat: true,
	HitWall:    true,
	Role:       true,
	Count:      true,
	ConnCheck:  true,
}

// Message is one parsed protocol unit: a command name and its arguments.
type Message struct {
	Name string
	Args []string
}

// Canonical resolves a token to the inbound command it names. The server
// suffixes a few commands with the wall or bat involved (HIT_WALL_LEFT,
// BALL_HIT_BAT1, ...); those resolve to the base command.
func Canonical(token string) (string, bool) {
	if inbound[token] {
		return token, true
	}
	switch {
	case strings.HasPrefix(token, HitWall+"_"):
		return HitWall, true
	case token == BallHitBat+"1", token == BallHitBat+"2":
		return BallHitBat, true
	}
	return "", false
}
