package aef

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
)

// Options controls a single encrypt operation (spec.md §4.6, §6.3);
// decryption reads every parameter from the container header. Mirrors the
// teacher's types.go Config+Validate() pattern.
type Options struct {
	ChunkSize uint32
	KDF       KDFParams
	Suite     CipherSuite

	// LegacyKDF selects PBKDF2 (deriveLegacyMaster) in place of Argon2id,
	// for hosts without Argon2id's memory headroom (SPEC_FULL.md §3). The
	// choice is recorded in the container header so decryption reproduces
	// it without being told.
	LegacyKDF bool
}

// DefaultOptions matches spec.md §6.3's stated CLI defaults: 1 MiB chunks,
// suite 0 (XChaCha20-Poly1305).
func DefaultOptions() Options {
	return Options{
		ChunkSize: 1 << 20,
		KDF:       DefaultKDFParams(),
		Suite:     SuiteXChaCha20,
	}
}

// Validate checks Options before any cryptographic work begins.
func (o Options) Validate() error {
	if err := ValidateChunkSize(o.ChunkSize); err != nil {
		return err
	}
	if err := ValidateKDFParams(o.KDF.MemoryKiB, o.KDF.Iterations, o.KDF.Parallelism); err != nil {
		return err
	}
	return ValidateSuite(byte(o.Suite))
}

// EncryptFile implements the Container Writer pipeline (spec.md §4.6):
// Start -> WroteHeader -> WroteName -> WroteMeta -> WritingChunks ->
// Flushed -> Success. Any failure is terminal; the plaintext source is
// preserved and the partially written container is left on disk (spec.md
// §4.6 step 11, §7 propagation policy).
//
// Grounded on the teacher's chunked_file.go (writeHeaders/newChunkedFile
// structuring) and age's internal/stream/stream.go EncryptWriter for true
// per-chunk streaming, in place of the teacher's streaming.go, which
// buffers the whole file before encrypting (see DESIGN.md).
func EncryptFile(path string, password []byte, opts Options) (containerPath string, err error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := ValidateFilePath(path); err != nil {
		return "", err
	}
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}

	basename := filepath.Base(path)
	if err := ValidateBasename(basename); err != nil {
		return "", err
	}

	in, err := os.Open(path)
	if err != nil {
		return "", NewIOError("open", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", NewIOError("stat", path, err)
	}

	// State: Start -> generate Salt and NonceBase (spec.md §3 invariant 1).
	var salt [32]byte
	var nonceBase [24]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return "", NewRandomnessError("failed to generate salt", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonceBase[:]); err != nil {
		return "", NewRandomnessError("failed to generate nonce base", err)
	}

	var master []byte
	if opts.LegacyKDF {
		master, err = deriveLegacyMaster(password, salt[:], int(opts.KDF.Iterations))
	} else {
		master, err = deriveMaster(password, salt[:], opts.KDF)
	}
	if err != nil {
		return "", err
	}
	defer wipe(master)

	metaKey, err := deriveMetaKey(master, byte(opts.Suite))
	if err != nil {
		return "", err
	}
	defer wipe(metaKey)
	dataKey, err := deriveDataKey(master, byte(opts.Suite))
	if err != nil {
		return "", err
	}
	defer wipe(dataKey)

	flags := byte(flagHasName | flagHasMeta)
	if opts.LegacyKDF {
		flags |= flagLegacyKDF
	}
	h := &header{
		Suite:     byte(opts.Suite),
		Flags:     flags,
		KDF:       opts.KDF,
		Salt:      salt,
		NonceBase: nonceBase,
		ChunkSize: opts.ChunkSize,
		FnLen:     uint16(len(basename)),
	}
	headerFixed := h.encode()

	// State: WroteHeader -> seal the filename under (MetaKey, idx=0).
	nameNonce, err := deriveNonce(byte(opts.Suite), nonceBase[:], nameNonceIndex)
	if err != nil {
		return "", err
	}
	fnCT, fnTag, err := seal(byte(opts.Suite), metaKey, nameNonce, headerFixed, []byte(basename))
	if err != nil {
		return "", err
	}

	outName, err := containerName(master, nonceBase[:], fnCT)
	if err != nil {
		return "", err
	}
	containerPath = filepath.Join(filepath.Dir(path), outName)

	out, err := os.OpenFile(containerPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", NewIOError("open", containerPath, err)
	}
	// On any error path below, close without removing: the partial
	// container is left on disk per spec.md §4.6 step 11.
	succeeded := false
	defer func() {
		out.Close()
		if !succeeded {
			return
		}
	}()

	if err := writeAll(out, containerPath, headerFixed, fnCT, fnTag); err != nil {
		return "", err
	}
	// State: WroteName.

	adPrefix := make([]byte, 0, len(headerFixed)+len(fnCT)+len(fnTag)+metaBlobSize+tagSize+4)
	adPrefix = append(adPrefix, headerFixed...)
	adPrefix = append(adPrefix, fnCT...)
	adPrefix = append(adPrefix, fnTag...)

	// State: HasMeta -> seal metadata under (MetaKey, idx=UINT64_MAX).
	metaNonce, err := deriveNonce(byte(opts.Suite), nonceBase[:], metaNonceIndex)
	if err != nil {
		return "", err
	}
	metaPlain := encodeMetaBlob(info)
	metaCT, metaTag, err := seal(byte(opts.Suite), metaKey, metaNonce, headerFixed, metaPlain)
	if err != nil {
		return "", err
	}
	var metaLenBuf [4]byte
	binary.LittleEndian.PutUint32(metaLenBuf[:], uint32(len(metaCT)))
	if err := writeAll(out, containerPath, metaLenBuf[:], metaCT, metaTag); err != nil {
		return "", err
	}
	adPrefix = append(adPrefix, metaCT...)
	adPrefix = append(adPrefix, metaTag...)
	// State: WroteMeta.

	// State: WritingChunks -> stream chunks in strictly increasing index
	// order (spec.md §4.6 step 10, §5 ordering guarantees).
	buf := make([]byte, opts.ChunkSize)
	for i := uint64(1); ; i++ {
		n, readErr := io.ReadFull(in, buf)
		if n == 0 && readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return "", NewIOError("read", path, readErr)
		}
		chunk := buf[:n]

		ad := make([]byte, 0, len(adPrefix)+8+4)
		ad = append(ad, adPrefix...)
		var idxLen [12]byte
		binary.LittleEndian.PutUint64(idxLen[0:8], i)
		binary.LittleEndian.PutUint32(idxLen[8:12], uint32(n))
		ad = append(ad, idxLen[:]...)

		nonce, err := deriveNonce(byte(opts.Suite), nonceBase[:], i)
		if err != nil {
			return "", err
		}
		ct, tag, err := seal(byte(opts.Suite), dataKey, nonce, ad, chunk)
		if err != nil {
			return "", err
		}

		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		if err := writeAll(out, containerPath, lenBuf[:], ct, tag); err != nil {
			return "", err
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	// State: Flushed.
	if err := out.Sync(); err != nil {
		return "", NewIOError("sync", containerPath, err)
	}
	if err := out.Close(); err != nil {
		return "", NewIOError("close", containerPath, err)
	}

	// State: Success -> unlink the plaintext source (spec.md §3 invariant
	// 5), only after the container has been fully flushed.
	in.Close()
	if err := os.Remove(path); err != nil {
		return "", NewIOError("remove", path, err)
	}
	succeeded = true

	return containerPath, nil
}

func writeAll(w io.Writer, path string, parts ...[]byte) error {
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		if _, err := w.Write(p); err != nil {
			return NewIOError("write", path, err)
		}
	}
	return nil
}

// wipe zeroes key material before it is released, per spec.md §5 "Key
// lifetime".
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Wipe zeroes a password or key buffer in place. Exported for callers
// (e.g. cmd/aef) holding a password read from the terminal.
func Wipe(b []byte) { wipe(b) }
