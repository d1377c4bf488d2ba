package aef

import "encoding/binary"

// Fixed header layout (spec.md §4.4): 81 bytes, little-endian integers.
const (
	magicAEF     = "AEF1"
	formatVer    = 3
	fixedHdrSize = 81

	flagHasName   = 1 << 0
	flagHasMeta   = 1 << 1
	flagLegacyKDF = 1 << 2
)

// FormatVersion is the container format version this build reads and
// writes (spec.md §4.4, §6.3's `--version` output).
const FormatVersion = formatVer

// header is the 81-byte fixed prefix of every container (spec.md §4.4).
// Its encoded bytes also serve verbatim as the base Associated Data for
// the filename AEAD.
type header struct {
	Suite      byte
	Flags      byte
	KDF        KDFParams
	Salt       [32]byte
	NonceBase  [24]byte
	ChunkSize  uint32
	FnLen      uint16
}

// encode renders the fixed header to its canonical 81-byte wire form.
// Grounded on the teacher's file_format.go FileHeader.WriteTo, generalized
// from its variable-length salt/nonce fields to this format's fixed
// 32/24-byte fields and extra KDF/chunk-size/suite fields.
func (h *header) encode() []byte {
	buf := make([]byte, fixedHdrSize)
	copy(buf[0:4], magicAEF)
	buf[4] = formatVer
	buf[5] = h.Suite
	buf[6] = h.Flags
	binary.LittleEndian.PutUint32(buf[7:11], h.KDF.MemoryKiB)
	binary.LittleEndian.PutUint32(buf[11:15], h.KDF.Iterations)
	binary.LittleEndian.PutUint32(buf[15:19], h.KDF.Parallelism)
	copy(buf[19:51], h.Salt[:])
	copy(buf[51:75], h.NonceBase[:])
	binary.LittleEndian.PutUint32(buf[75:79], h.ChunkSize)
	binary.LittleEndian.PutUint16(buf[79:81], h.FnLen)
	return buf
}

// decodeHeader parses the fixed 81-byte header, verifying magic and
// version (spec.md §4.7 step 1). On mismatch it returns a *FormatError.
func decodeHeader(path string, buf []byte) (*header, error) {
	if len(buf) < fixedHdrSize {
		return nil, NewTruncationError(path, "container shorter than fixed header")
	}
	if string(buf[0:4]) != magicAEF {
		return nil, NewFormatError(path, "bad magic bytes")
	}
	if buf[4] != formatVer {
		return nil, NewFormatError(path, "unsupported container version")
	}

	h := &header{
		Suite: buf[5],
		Flags: buf[6],
		KDF: KDFParams{
			MemoryKiB:   binary.LittleEndian.Uint32(buf[7:11]),
			Iterations:  binary.LittleEndian.Uint32(buf[11:15]),
			Parallelism: binary.LittleEndian.Uint32(buf[15:19]),
		},
		ChunkSize: binary.LittleEndian.Uint32(buf[75:79]),
		FnLen:     binary.LittleEndian.Uint16(buf[79:81]),
	}
	copy(h.Salt[:], buf[19:51])
	copy(h.NonceBase[:], buf[51:75])

	if h.Flags&flagHasName == 0 {
		return nil, NewFormatError(path, "HasName flag must be set in v3 containers")
	}

	return h, nil
}

func (h *header) hasMeta() bool { return h.Flags&flagHasMeta != 0 }
