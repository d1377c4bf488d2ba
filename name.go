package aef

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const containerExt = ".crypt"

// containerName implements spec.md §4.8: the on-disk name is
// hex(keyedHash(master, NonceBase[0:8], fn_ct)) + ".crypt". It is a pure
// function of (MasterKey, NonceBase, fn_ct); the reader never uses it to
// decrypt, only the writer produces it. New code, built on the blake2b
// dependency already wired by kdf.go.
func containerName(master, nonceBase, fnCT []byte) (string, error) {
	if err := ValidateKey(master, masterKeyLen); err != nil {
		return "", err
	}
	if len(nonceBase) < 8 {
		return "", &ValidationError{Field: "nonce_base", Value: len(nonceBase), Message: "nonce base must be at least 8 bytes for naming"}
	}

	h, err := blake2b.New256(master)
	if err != nil {
		return "", NewKDFError("failed to initialize name hash", err)
	}
	h.Write(nonceBase[0:8])
	h.Write(fnCT)
	digest := h.Sum(nil)

	return hex.EncodeToString(digest) + containerExt, nil
}
