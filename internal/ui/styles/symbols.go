package styles

// Symbols holds the markers printed in front of changes and status cells
type Symbols struct {
	Added    string
	Modified string
	Removed  string
	Clean    string
	Dirty    string
	Conflict string
	Ahead    string
	Behind   string
}

var defaultSymbols = Symbols{
	Added:    "+",
	Modified: "~",
	Removed:  "-",
	Clean:    "✓",
	Dirty:    "●",
	Conflict: "✕",
	Ahead:    "↑",
	Behind:   "↓",
}

// plainSymbols are used when the theme disables colors, so markers stay
// readable in logs and pipes.
var plainSymbols = Symbols{
	Added:    "A",
	Modified: "M",
	Removed:  "D",
	Clean:    "clean",
	Dirty:    "dirty",
	Conflict: "conflict",
	Ahead:    "+",
	Behind:   "-",
}

var currentSymbols = defaultSymbols

// CurrentSymbols returns the active symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// SetPlain switches to ASCII symbols.
func SetPlain(plain bool) {
	if plain {
		currentSymbols = plainSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}
