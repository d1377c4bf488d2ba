package aef

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/twofish"
)

// newAESBlockFactory backs suite 1 (AES-GCM-SIV). Standard library.
func newAESBlockFactory() blockFactory {
	return func(key []byte) (cipher.Block, error) {
		return aes.NewCipher(key)
	}
}

// newTwofishBlockFactory backs suite 2 (Twofish-GCM-SIV). Twofish is a
// direct subpackage of the already-required golang.org/x/crypto module
// (see DESIGN.md); no pack repo names it directly, but it sits alongside
// the other x/crypto primitives the teacher already imports.
func newTwofishBlockFactory() blockFactory {
	return func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	}
}
