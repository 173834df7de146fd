package dma

import "fmt"

// Direction selects the copy orientation between the external tier and the
// cluster-local fast tier.
type Direction int

const (
	// ExtToLoc copies from external memory into the fast tier.
	ExtToLoc Direction = iota
	// LocToExt copies from the fast tier out to external memory.
	LocToExt
)

func (d Direction) String() string {
	switch d {
	case ExtToLoc:
		return "ext2loc"
	case LocToExt:
		return "loc2ext"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}
