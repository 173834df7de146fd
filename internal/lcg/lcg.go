// Package lcg implements the 31-bit linear congruential generator used to
// synthesize reproducible test data for transfer runs.
package lcg

const (
	multiplier = 1103515245
	increment  = 12345
	mask       = 0x7fffffff
)

// DefaultSeed is the seed used by the reference data pattern. Every run
// seeded with it produces the same byte stream.
const DefaultSeed uint32 = 1

// Generator is a deterministic pseudo-random source. It is a pure function
// of its seed and is not safe for concurrent use.
type Generator struct {
	state uint32
}

// New returns a generator seeded with seed. Only the low 31 bits of the seed
// are significant.
func New(seed uint32) *Generator {
	return &Generator{state: seed & mask}
}

// Next advances the state by s' = (1103515245*s + 12345) mod 2^31 and
// returns the new value.
func (g *Generator) Next() uint32 {
	// uint32 wraparound keeps the low 31 bits exact, so masking after the
	// multiply-add is equivalent to full-width arithmetic mod 2^31.
	g.state = (multiplier*g.state + increment) & mask
	return g.state
}

// Byte returns the low byte of the next value.
func (g *Generator) Byte() byte {
	return byte(g.Next() & 0xFF)
}

// Fill overwrites buf with successive bytes from the generator.
func (g *Generator) Fill(buf []byte) {
	for i := range buf {
		buf[i] = g.Byte()
	}
}

// Reseed resets the generator to the given seed, replaying the stream from
// the start.
func (g *Generator) Reseed(seed uint32) {
	g.state = seed & mask
}
