package aef

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// auroraAEAD implements suite 50, Aurora-SIV: a hash-then-stream-cipher
// synthetic-IV construction over keyed BLAKE2b and ChaCha20. Its
// suiteName/key-derivation label is "aurora-ctr" (spec.md §9 open
// question 1), preserved even though the construction is SIV-based.
//
// Structurally grounded on Yawning-hs1siv/hs1siv.go's hash-then-stream
// shape (derive a synthetic IV from hashing plaintext+AD, then use it to
// seed the stream cipher) and concretely grounded on DataDog's
// d2/aead.go for the dependency pair (blake2b.NewXOF key derivation +
// chacha20.NewUnauthenticatedCipher). Neither source's nonce/tag sizes
// match spec.md's (16-byte nonce, 16-byte tag) so this is a new sizing,
// not a port of either.
type auroraAEAD struct{}

func (auroraAEAD) nonceLen() int { return 16 }

func (a auroraAEAD) seal(key, nonce, ad, plaintext []byte) ([]byte, []byte, error) {
	macKey, streamKey, streamNonce, err := a.deriveKeys(key, nonce)
	if err != nil {
		return nil, nil, err
	}

	siv, err := a.synthesize(macKey, ad, plaintext)
	if err != nil {
		return nil, nil, err
	}

	stream, err := chacha20.NewUnauthenticatedCipher(streamKey, streamNonce)
	if err != nil {
		return nil, nil, NewKDFError("failed to initialize aurora stream cipher", err)
	}
	// Mix the synthetic IV into the keystream position so the ciphertext
	// itself depends on (plaintext, aad), matching the SIV property.
	stream.SetCounter(sivCounter(siv))

	ct := make([]byte, len(plaintext))
	stream.XORKeyStream(ct, plaintext)

	return ct, siv[:tagSize], nil
}

func (a auroraAEAD) open(key, nonce, ad, ciphertext, tag []byte) ([]byte, error) {
	macKey, streamKey, streamNonce, err := a.deriveKeys(key, nonce)
	if err != nil {
		return nil, err
	}

	stream, err := chacha20.NewUnauthenticatedCipher(streamKey, streamNonce)
	if err != nil {
		return nil, NewKDFError("failed to initialize aurora stream cipher", err)
	}
	var tagBlock [tagSize]byte
	copy(tagBlock[:], tag)
	stream.SetCounter(sivCounter(tagBlock))

	pt := make([]byte, len(ciphertext))
	stream.XORKeyStream(pt, ciphertext)

	siv, err := a.synthesize(macKey, ad, pt)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(siv[:tagSize], tag) != 1 {
		return nil, &AuthFailureError{Context: "chunk"}
	}
	return pt, nil
}

// deriveKeys splits (key, nonce) into a MAC key and a stream-cipher
// key+nonce via blake2b's XOF, mirroring d2/aead.go's dual-domain
// derivation.
func (auroraAEAD) deriveKeys(key, nonce []byte) (macKey, streamKey, streamNonce []byte, err error) {
	var mac [32]byte
	macXOF, err := blake2b.NewXOF(uint32(len(mac)), key)
	if err != nil {
		return nil, nil, nil, NewKDFError("failed to initialize aurora mac kdf", err)
	}
	macXOF.Write([]byte("aurora-authentication-key-v1"))
	macXOF.Write(nonce)
	if _, err := macXOF.Read(mac[:]); err != nil {
		return nil, nil, nil, NewKDFError("failed to derive aurora mac key", err)
	}

	var streamMaterial [32 + 12]byte
	streamXOF, err := blake2b.NewXOF(uint32(len(streamMaterial)), key)
	if err != nil {
		return nil, nil, nil, NewKDFError("failed to initialize aurora stream kdf", err)
	}
	streamXOF.Write([]byte("aurora-encryption-key-v1"))
	streamXOF.Write(nonce)
	if _, err := streamXOF.Read(streamMaterial[:]); err != nil {
		return nil, nil, nil, NewKDFError("failed to derive aurora stream key", err)
	}

	return mac[:], streamMaterial[:32], streamMaterial[32:], nil
}

// synthesize computes the synthetic IV (and authentication tag) as a keyed
// BLAKE2b MAC over (ad, plaintext, length-suffix).
func (auroraAEAD) synthesize(macKey, ad, pt []byte) ([tagSize]byte, error) {
	var out [tagSize]byte
	h, err := blake2b.New(tagSize, macKey)
	if err != nil {
		return out, NewKDFError("failed to initialize aurora mac", err)
	}
	h.Write(ad)
	h.Write(pt)
	var lenSuffix [16]byte
	putUvarintPair(lenSuffix[:], uint64(len(ad)), uint64(len(pt)))
	h.Write(lenSuffix[:])
	sum := h.Sum(nil)
	copy(out[:], sum)
	return out, nil
}

func putUvarintPair(dst []byte, a, b uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(a >> (8 * uint(i)))
		dst[8+i] = byte(b >> (8 * uint(i)))
	}
}

// sivCounter folds a 16-byte synthetic IV down to the uint32 block counter
// chacha20.Cipher.SetCounter expects.
func sivCounter(siv [tagSize]byte) uint32 {
	return uint32(siv[0]) | uint32(siv[1])<<8 | uint32(siv[2])<<16 | uint32(siv[3])<<24
}
