package aef

// CipherSuite identifies one of the six AEAD constructions this format can
// use for both the metadata path and the data path of a single container.
// The wire value is a single byte (spec.md §3, §4.4).
type CipherSuite byte

const (
	SuiteXChaCha20      CipherSuite = 0
	SuiteAESGCMSIV      CipherSuite = 1
	SuiteTwofishGCMSIV  CipherSuite = 2
	SuiteSerpentGCMSIV  CipherSuite = 3
	SuiteCamelliaGCMSIV CipherSuite = 4
	SuiteAuroraSIV      CipherSuite = 50
)

// tagSize is the fixed-width authentication tag this format presents for
// every suite, regardless of the internal synthetic-IV state width
// (spec.md §4.3).
const tagSize = 16

// String returns the human-readable suite name used nowhere on the wire
// except as an input to key derivation labels (spec.md §4.1).
func (c CipherSuite) String() string {
	name, err := suiteName(byte(c))
	if err != nil {
		return "unknown"
	}
	return name
}

// suiteName returns the exact ASCII label used in key-derivation labels
// (spec.md §4.1 table). Suite 50's label is intentionally "aurora-ctr",
// not "aurora-siv" — see SPEC_FULL.md §4, open question 1.
func suiteName(suite byte) (string, error) {
	switch CipherSuite(suite) {
	case SuiteXChaCha20:
		return "xchacha20", nil
	case SuiteAESGCMSIV:
		return "aes-gcm-siv", nil
	case SuiteTwofishGCMSIV:
		return "twofish-gcm-siv", nil
	case SuiteSerpentGCMSIV:
		return "serpent-gcm-siv", nil
	case SuiteCamelliaGCMSIV:
		return "camellia-gcm-siv", nil
	case SuiteAuroraSIV:
		return "aurora-ctr", nil
	default:
		return "", &SuiteError{Suite: suite}
	}
}

// ParseCipherName maps a CLI-facing cipher name (spec.md §6.3) to a suite
// tag, case-insensitively, accepting the common aliases.
func ParseCipherName(name string) (CipherSuite, error) {
	switch normalizeCipherName(name) {
	case "xchacha20", "xchacha20poly1305", "xchacha":
		return SuiteXChaCha20, nil
	case "aesgcmsiv", "aes256gcmsiv", "aes":
		return SuiteAESGCMSIV, nil
	case "twofishgcmsiv", "twofish":
		return SuiteTwofishGCMSIV, nil
	case "serpentgcmsiv", "serpent":
		return SuiteSerpentGCMSIV, nil
	case "camelliagcmsiv", "camellia":
		return SuiteCamelliaGCMSIV, nil
	case "aurorasiv", "aurora":
		return SuiteAuroraSIV, nil
	default:
		return 0, &ValidationError{Field: "cipher", Value: name, Message: "unrecognized cipher suite name"}
	}
}

func normalizeCipherName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' || c == '_' || c == ' ' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// aead is the uniform sealing/opening interface every suite implements
// (spec.md §4.3 component D).
type aead interface {
	// nonceLen returns the suite's required nonce length in bytes.
	nonceLen() int
	// seal returns (ciphertext, tag16). len(ciphertext) == len(plaintext).
	seal(key, nonce, ad, plaintext []byte) (ciphertext, tag []byte, err error)
	// open verifies tag16 over (ad, ciphertext) and returns plaintext, or
	// AuthFailureError-wrapped error on mismatch.
	open(key, nonce, ad, ciphertext, tag []byte) (plaintext []byte, err error)
}

// newAEAD constructs the suite-specific AEAD implementation for a tag.
func newAEAD(suite byte) (aead, error) {
	switch CipherSuite(suite) {
	case SuiteXChaCha20:
		return xchachaAEAD{}, nil
	case SuiteAESGCMSIV:
		return gcmSIVAEAD{block: newAESBlockFactory()}, nil
	case SuiteTwofishGCMSIV:
		return gcmSIVAEAD{block: newTwofishBlockFactory()}, nil
	case SuiteSerpentGCMSIV:
		return gcmSIVAEAD{block: newSerpentBlockFactory()}, nil
	case SuiteCamelliaGCMSIV:
		return gcmSIVAEAD{block: newCamelliaBlockFactory()}, nil
	case SuiteAuroraSIV:
		return auroraAEAD{}, nil
	default:
		return nil, &SuiteError{Suite: suite}
	}
}

// nonceLenForSuite returns the nonce length a suite requires, without
// constructing the full AEAD (used by validation and nonce derivation).
func nonceLenForSuite(suite byte) (int, error) {
	switch CipherSuite(suite) {
	case SuiteXChaCha20:
		return 24, nil
	case SuiteAESGCMSIV, SuiteTwofishGCMSIV, SuiteSerpentGCMSIV, SuiteCamelliaGCMSIV:
		return 12, nil
	case SuiteAuroraSIV:
		return 16, nil
	default:
		return 0, &SuiteError{Suite: suite}
	}
}

// seal dispatches to the suite's AEAD implementation (spec.md §4.3).
func seal(suite byte, key, nonce, ad, plaintext []byte) (ciphertext, tag []byte, err error) {
	a, err := newAEAD(suite)
	if err != nil {
		return nil, nil, err
	}
	return a.seal(key, nonce, ad, plaintext)
}

// open dispatches to the suite's AEAD implementation (spec.md §4.3).
func open(suite byte, key, nonce, ad, ciphertext, tag []byte) (plaintext []byte, err error) {
	a, err := newAEAD(suite)
	if err != nil {
		return nil, err
	}
	return a.open(key, nonce, ad, ciphertext, tag)
}
