// Package aef implements the AEF container format: password-based,
// streaming, chunk-authenticated file encryption with a choice of six
// AEAD cipher suites.
//
// # Overview
//
// A container is a single self-describing file: a fixed header carrying
// the KDF parameters, salt, and nonce base; an AEAD-sealed filename; an
// optional AEAD-sealed metadata blob (modification time and permission
// bits); and a sequence of independently sealed, length-prefixed data
// chunks. The fixed header, the sealed filename and the sealed metadata
// are part of every chunk's Associated Data, together with the chunk's
// index and length, so tampering with them, reordering chunks, splicing
// chunks between containers, or cutting a unit short is detected. A
// container that ends exactly at a chunk boundary reads as complete:
// removing whole chunks from the end is not detected.
//
// # Cipher suites
//
//   - XChaCha20-Poly1305 (suite 0)
//   - AES-256-GCM-SIV (suite 1)
//   - Twofish-GCM-SIV (suite 2)
//   - Serpent-GCM-SIV (suite 3)
//   - Camellia-GCM-SIV (suite 4)
//   - Aurora-SIV (suite 50)
//
// All six present a uniform 16-byte authentication tag regardless of
// their internal synthetic-IV state width.
//
// # Basic usage
//
//	opts := aef.DefaultOptions()
//	opts.Suite = aef.SuiteAESGCMSIV
//
//	containerPath, err := aef.EncryptFile("/path/to/secret.txt", password, opts)
//	if err != nil {
//	    panic(err)
//	}
//
//	plaintextPath, err := aef.DecryptFile(containerPath, password)
//	if err != nil {
//	    panic(err)
//	}
//
// # Key derivation
//
// A password and a random 32-byte salt are run through Argon2id to
// produce a 32-byte MasterKey. Two 32-byte sub-keys, MetaKey and DataKey,
// are then derived from MasterKey via a keyed hash labeled with the
// container's cipher suite name, so a single password never shares key
// material across suites.
//
// # Security considerations
//
// Protected against:
//   - Unauthorized access to container contents at rest
//   - Truncation inside a unit, and reordering or splicing of chunks
//   - Tampering with the filename or metadata unit
//   - Offline brute-force attacks (memory-hard key derivation)
//
// Not protected against:
//   - Removal of whole chunks from the end of a container
//   - Memory dumps while a file is being encrypted or decrypted
//   - Side-channel attacks (timing, cache)
//   - Loss of the password (there is no recovery path)
package aef
