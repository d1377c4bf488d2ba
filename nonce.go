package aef

import "encoding/binary"

// Nonce index reservations (spec.md §3, §4.2): index 0 is the filename
// unit, ^uint64(0) is the metadata unit; data chunks use 1..N.
const (
	nameNonceIndex = uint64(0)
	metaNonceIndex = ^uint64(0)
)

const nonceBaseLen = 24

// deriveNonce implements spec.md §4.2's bit-exact per-suite nonce
// derivation from a 24-byte NonceBase and a monotonic index. The three
// suite nonce shapes (24, 12, 16 bytes) are handled explicitly; nonce
// shapes are never unified across suites (spec.md §9 design notes).
func deriveNonce(suite byte, base []byte, idx uint64) ([]byte, error) {
	if len(base) != nonceBaseLen {
		return nil, &ValidationError{Field: "nonce_base", Value: len(base), Message: "nonce base must be 24 bytes"}
	}
	nonceLen, err := nonceLenForSuite(suite)
	if err != nil {
		return nil, err
	}

	switch nonceLen {
	case 24:
		// XChaCha20-Poly1305: base verbatim, bytes [16..23] overwritten
		// with idx little-endian.
		nonce := make([]byte, 24)
		copy(nonce, base)
		binary.LittleEndian.PutUint64(nonce[16:24], idx)
		return nonce, nil

	case 12:
		// AES/Twofish/Serpent/Camellia-GCM-SIV: bytes [0..5] verbatim,
		// bytes [6..11] XORed with the low 48 bits of idx, little-endian.
		// Data-chunk indices must stay below 2^48; the reserved metadata
		// index keeps only its low 48 bits.
		if idx >= (1<<48) && idx != metaNonceIndex {
			return nil, &ValidationError{Field: "index", Value: idx, Message: "index exceeds 48-bit nonce range for this suite"}
		}
		nonce := make([]byte, 12)
		copy(nonce[0:6], base[0:6])
		for k := 0; k < 6; k++ {
			nonce[6+k] = base[6+k] ^ byte(idx>>(8*uint(k)))
		}
		return nonce, nil

	case 16:
		// Aurora-SIV: bytes [0..7] verbatim, bytes [8..15] XORed with idx
		// little-endian (full 64 bits).
		nonce := make([]byte, 16)
		copy(nonce[0:8], base[0:8])
		for k := 0; k < 8; k++ {
			nonce[8+k] = base[8+k] ^ byte(idx>>(8*uint(k)))
		}
		return nonce, nil

	default:
		return nil, &SuiteError{Suite: suite}
	}
}
