package aef

import (
	"hash"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/pbkdf2"
)

const masterKeyLen = 32

// KDFParams are the memory-hard KDF's tunables, persisted verbatim in the
// container header so decryption can reproduce MasterKey (spec.md §3, §4.1).
type KDFParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint32
}

// DefaultKDFParams matches spec.md §6.3's stated CLI defaults.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryKiB: 65536, Iterations: 3, Parallelism: 1}
}

// deriveMaster implements spec.md §4.1's deriveMaster: password+salt+params
// -> 32-byte MasterKey via Argon2id. Deterministic given its inputs; no
// hidden context is mixed in.
func deriveMaster(password, salt []byte, p KDFParams) ([]byte, error) {
	if err := ValidateKDFParams(p.MemoryKiB, p.Iterations, p.Parallelism); err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, uint8(clampParallelism(p.Parallelism)), masterKeyLen), nil
}

func clampParallelism(p uint32) uint32 {
	if p > 255 {
		return 255
	}
	return p
}

// deriveLegacyMaster is an alternate, non-default KDF profile wired for
// hosts without Argon2id's memory headroom (SPEC_FULL.md §3). It is never
// chosen automatically; callers opt in via Options.
func deriveLegacyMaster(password, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(password, salt, iterations, masterKeyLen, blake2b256New), nil
}

// deriveSubkey implements spec.md §4.1's deriveSubkey: a keyed cryptographic
// hash of label, keyed by master, producing a 32-byte sub-key. Used for
// MetaKey ("file-meta:"+suiteName) and DataKey ("file-data:"+suiteName).
func deriveSubkey(master []byte, label string) ([]byte, error) {
	if err := ValidateKey(master, masterKeyLen); err != nil {
		return nil, err
	}
	h, err := blake2b.New256(master)
	if err != nil {
		return nil, NewKDFError("failed to initialize keyed hash", err)
	}
	h.Write([]byte(label))
	return h.Sum(nil), nil
}

// deriveMetaKey and deriveDataKey build the two sub-keys a container needs
// for a given suite (spec.md §4.1).
func deriveMetaKey(master []byte, suite byte) ([]byte, error) {
	name, err := suiteName(suite)
	if err != nil {
		return nil, err
	}
	return deriveSubkey(master, "file-meta:"+name)
}

func deriveDataKey(master []byte, suite byte) ([]byte, error) {
	name, err := suiteName(suite)
	if err != nil {
		return nil, err
	}
	return deriveSubkey(master, "file-data:"+name)
}

// blake2b256New adapts blake2b.New256 to the hash.Hash-factory shape
// pbkdf2.Key expects, matching the teacher's PBKDF2 wiring in
// key_provider.go (which parameterized over crypto/sha256 and
// crypto/sha512) but using the keyed-hash family already required for the
// rest of this module instead of pulling in crypto/sha256 for one legacy
// path.
func blake2b256New() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}
