// Package transform implements the in-place byte transformation applied to
// data resident in the fast tier.
package transform

// Apply rewrites every byte of buf as (b * 3) mod 256 in place. Callers must
// only pass ranges whose transfer into the fast tier has completed.
func Apply(buf []byte) {
	for i := range buf {
		buf[i] *= 3
	}
}

// Expected returns the transformed value of a single source byte, for use by
// the verifier.
func Expected(b byte) byte {
	return b * 3
}
