package aef

import "fmt"

// Input validation helpers, checked before any cryptographic work begins.

// ValidateChunkSize checks that a chunk size fits the format's u32 length
// prefix and is at least one byte.
func ValidateChunkSize(size uint32) error {
	if size == 0 {
		return &ValidationError{Field: "chunk_size", Value: size, Message: "chunk size must be at least 1 byte"}
	}
	return nil
}

// ValidateBasename checks that a basename fits the u16 fn_len field
// (spec.md §3: at most 65535 bytes).
func ValidateBasename(name string) error {
	if len(name) == 0 {
		return &ValidationError{Field: "basename", Message: "basename cannot be empty"}
	}
	if len(name) > 65535 {
		return NewNameError(name, len(name))
	}
	return nil
}

// ValidateSuite checks that a suite tag is one of the six defined in
// spec.md §3.
func ValidateSuite(suite byte) error {
	switch CipherSuite(suite) {
	case SuiteXChaCha20, SuiteAESGCMSIV, SuiteTwofishGCMSIV, SuiteSerpentGCMSIV, SuiteCamelliaGCMSIV, SuiteAuroraSIV:
		return nil
	default:
		return &SuiteError{Suite: suite}
	}
}

// ValidateKDFParams checks that Argon2id parameters are sane enough to
// avoid an obviously-doomed derivation (zero memory, zero iterations).
func ValidateKDFParams(mKiB, t, p uint32) error {
	if mKiB == 0 {
		return &ValidationError{Field: "m_kib", Value: mKiB, Message: "memory cost cannot be zero"}
	}
	if t == 0 {
		return &ValidationError{Field: "t", Value: t, Message: "time cost cannot be zero"}
	}
	if p == 0 {
		return &ValidationError{Field: "p", Value: p, Message: "parallelism cannot be zero"}
	}
	return nil
}

// ValidateKey checks that a derived key has the expected length (always
// 32 bytes for MasterKey/MetaKey/DataKey in this format).
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &ValidationError{Field: "key", Message: "key cannot be nil"}
	}
	if len(key) != expectedSize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
		}
	}
	return nil
}

// ValidateNonce checks that a nonce has the suite-appropriate length
// (spec.md §4.2: 24, 12, or 16 bytes).
func ValidateNonce(nonce []byte, suite byte) error {
	want, err := nonceLenForSuite(suite)
	if err != nil {
		return err
	}
	if len(nonce) != want {
		return &ValidationError{
			Field:   "nonce",
			Value:   len(nonce),
			Message: fmt.Sprintf("invalid nonce size: got %d bytes, expected %d bytes for suite %d", len(nonce), want, suite),
		}
	}
	return nil
}

// ValidateFilePath checks that a file path is non-empty.
func ValidateFilePath(path string) error {
	if path == "" {
		return &ValidationError{Field: "path", Message: "file path cannot be empty"}
	}
	return nil
}
