package aef

import "crypto/cipher"

// newCamelliaBlockFactory backs suite 4 (Camellia-GCM-SIV). See
// blockcipher_spn.go and DESIGN.md for why this is hand-rolled rather than
// imported: no Camellia package survived retrieval in the reference pack.
func newCamelliaBlockFactory() blockFactory {
	return func(key []byte) (cipher.Block, error) {
		return newSPNBlock(key, "camellia-like", 11)
	}
}
