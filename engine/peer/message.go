package peer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"othello-arbiter/board"
)

// Kind identifies a protocol message.
type Kind int

const (
	KindOpen Kind = iota + 1
	KindStart
	KindMove
	KindAck
	KindUndo
	KindEnd
	KindBye
)

var kindNames = map[Kind]string{
	KindOpen:  "OPEN",
	KindStart: "START",
	KindMove:  "MOVE",
	KindAck:   "ACK",
	KindUndo:  "UNDO",
	KindEnd:   "END",
	KindBye:   "BYE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const passToken = "PASS"

// ErrMalformed is returned by Parse for lines outside the protocol grammar.
var ErrMalformed = errors.New("malformed message")

// Message is one protocol line.
type Message struct {
	Kind   Kind
	Name   string     // OPEN, START
	Color  board.Cell // START
	Millis int64      // START, ACK
	Pass   bool       // MOVE PASS
	Square string     // MOVE <notation>, as received
}

// Open builds "OPEN <name>".
func Open(name string) Message { return Message{Kind: KindOpen, Name: name} }

// Start builds "START <COLOR> <name> <millis>". Whitespace in name becomes
// underscores when formatted so the line keeps four fields.
func Start(color board.Cell, name string, millis int64) Message {
	return Message{Kind: KindStart, Color: color, Name: name, Millis: millis}
}

// Move builds "MOVE <notation>".
func Move(square string) Message { return Message{Kind: KindMove, Square: square} }

// PassMove builds "MOVE PASS".
func PassMove() Message { return Message{Kind: KindMove, Pass: true} }

// Ack builds "ACK <millis>".
func Ack(millis int64) Message { return Message{Kind: KindAck, Millis: millis} }

// Undo builds "UNDO".
func Undo() Message { return Message{Kind: KindUndo} }

// End builds "END".
func End() Message { return Message{Kind: KindEnd} }

// Bye builds "BYE".
func Bye() Message { return Message{Kind: KindBye} }

// String formats the message as a protocol line without the trailing newline.
func (m Message) String() string {
	switch m.Kind {
	case KindOpen:
		if m.Name == "" {
			return "OPEN"
		}
		return "OPEN " + m.Name
	case KindStart:
		return fmt.Sprintf("START %s %s %d", colorToWire(m.Color), wireName(m.Name), m.Millis)
	case KindMove:
		if m.Pass {
			return "MOVE " + passToken
		}
		return "MOVE " + strings.ToUpper(m.Square)
	case KindAck:
		return fmt.Sprintf("ACK %d", m.Millis)
	}
	return m.Kind.String()
}

func wireName(name string) string {
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "anonymous"
	}
	return name
}

// Parse reads one protocol line. Keywords are case-insensitive.
func Parse(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	malformed := func() (Message, error) {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	switch strings.ToUpper(fields[0]) {
	case "OPEN":
		return Message{Kind: KindOpen, Name: strings.Join(fields[1:], " ")}, nil
	case "START":
		if len(fields) != 4 {
			return malformed()
		}
		color, ok := wireToColor(fields[1])
		if !ok {
			return malformed()
		}
		millis, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return malformed()
		}
		return Start(color, fields[2], millis), nil
	case "MOVE":
		if len(fields) != 2 {
			return malformed()
		}
		if strings.EqualFold(fields[1], passToken) {
			return PassMove(), nil
		}
		return Move(fields[1]), nil
	case "ACK":
		if len(fields) != 2 {
			return malformed()
		}
		millis, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return malformed()
		}
		return Ack(millis), nil
	case "UNDO", "END", "BYE":
		if len(fields) != 1 {
			return malformed()
		}
		switch strings.ToUpper(fields[0]) {
		case "UNDO":
			return Undo(), nil
		case "END":
			return End(), nil
		}
		return Bye(), nil
	}
	return malformed()
}
