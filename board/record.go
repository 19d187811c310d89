package board

// Record is one entry of the undo log. It is either a Pass or a Flip.
type Record interface {
	isRecord()
}

// Pass records a ply in which Color had no legal move.
type Pass struct {
	Color Cell
}

// Flip records a placed disc and the discs it turned over, in walk order.
// Disc colors are the colors after the move.
type Flip struct {
	Placed  Disc
	Flipped []Disc
}

func (Pass) isRecord() {}
func (Flip) isRecord() {}

// Discs returns the placed disc followed by the flipped discs.
func (f Flip) Discs() []Disc {
	discs := make([]Disc, 0, len(f.Flipped)+1)
	discs = append(discs, f.Placed)
	return append(discs, f.Flipped...)
}
