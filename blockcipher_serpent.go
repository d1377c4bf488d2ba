package aef

import "crypto/cipher"

// newSerpentBlockFactory backs suite 3 (Serpent-GCM-SIV). See
// blockcipher_spn.go and DESIGN.md for why this is hand-rolled rather than
// imported: no Serpent package survived retrieval in the reference pack.
func newSerpentBlockFactory() blockFactory {
	return func(key []byte) (cipher.Block, error) {
		return newSPNBlock(key, "serpent-like", 5)
	}
}
