package aef

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func allSuites() []CipherSuite {
	return []CipherSuite{
		SuiteXChaCha20,
		SuiteAESGCMSIV,
		SuiteTwofishGCMSIV,
		SuiteSerpentGCMSIV,
		SuiteCamelliaGCMSIV,
		SuiteAuroraSIV,
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, suite := range allSuites() {
		t.Run(suite.String(), func(t *testing.T) {
			dir := t.TempDir()
			plaintext := []byte("the quick brown fox jumps over the lazy dog, repeated.\n")
			src := writeTempFile(t, dir, "report.txt", plaintext)

			opts := Options{ChunkSize: 16, KDF: DefaultKDFParams(), Suite: suite}
			password := []byte("correct horse battery staple")

			containerPath, err := EncryptFile(src, password, opts)
			if err != nil {
				t.Fatalf("EncryptFile: %v", err)
			}
			if _, err := os.Stat(src); !os.IsNotExist(err) {
				t.Fatalf("plaintext source should be removed after successful encryption")
			}

			outPath, err := DecryptFile(containerPath, password)
			if err != nil {
				t.Fatalf("DecryptFile: %v", err)
			}
			if outPath != src {
				t.Errorf("restored path = %q, want %q", outPath, src)
			}

			got, err := os.ReadFile(outPath)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("decrypted content mismatch: got %q, want %q", got, plaintext)
			}
			if _, err := os.Stat(containerPath); !os.IsNotExist(err) {
				t.Fatalf("container should be removed after successful decryption")
			}
		})
	}
}

func TestEncryptDecryptEmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "empty.bin", nil)

	opts := Options{ChunkSize: 1024, KDF: DefaultKDFParams(), Suite: SuiteXChaCha20}
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}
	outPath, err := DecryptFile(containerPath, password)
	if err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty file, got %d bytes", len(got))
	}
}

func TestEncryptDecryptExactChunkBoundary(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 64)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	src := writeTempFile(t, dir, "boundary.bin", data)

	opts := Options{ChunkSize: 32, KDF: DefaultKDFParams(), Suite: SuiteAESGCMSIV}
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}
	outPath, err := DecryptFile(containerPath, password)
	if err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content mismatch across exact chunk boundary")
	}
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "secret.txt", []byte("top secret"))

	opts := DefaultOptions()
	containerPath, err := EncryptFile(src, []byte("right password"), opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	_, err = DecryptFile(containerPath, []byte("wrong password"))
	if err == nil {
		t.Fatal("expected authentication failure with wrong password")
	}
	if !IsAuthFailureError(err) {
		t.Errorf("expected AuthFailureError, got %T: %v", err, err)
	}
}

func TestDecryptTamperedChunkFails(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", bytes.Repeat([]byte{0x42}, 256))

	opts := Options{ChunkSize: 64, KDF: DefaultKDFParams(), Suite: SuiteXChaCha20}
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	raw, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	flipped := make([]byte, len(raw))
	copy(flipped, raw)
	flipped[len(flipped)-1] ^= 0xff
	if err := os.WriteFile(containerPath, flipped, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = DecryptFile(containerPath, password)
	if err == nil {
		t.Fatal("expected authentication failure on tampered chunk")
	}
	if !IsAuthFailureError(err) && !IsTruncationError(err) {
		t.Errorf("expected AuthFailureError or TruncationError, got %T: %v", err, err)
	}
}

func TestDecryptTruncatedContainerFails(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", bytes.Repeat([]byte{0x7a}, 256))

	opts := Options{ChunkSize: 64, KDF: DefaultKDFParams(), Suite: SuiteXChaCha20}
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	raw, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	truncated := raw[:len(raw)-10]
	if err := os.WriteFile(containerPath, truncated, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = DecryptFile(containerPath, password)
	if err == nil {
		t.Fatal("expected truncation error")
	}
	if !IsTruncationError(err) {
		t.Errorf("expected TruncationError, got %T: %v", err, err)
	}
}

func TestDecryptUnknownSuiteByteFails(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", []byte("hello"))

	opts := DefaultOptions()
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	raw, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[5] = 0xef // suite byte offset
	if err := os.WriteFile(containerPath, raw, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = DecryptFile(containerPath, password)
	if !IsSuiteError(err) {
		t.Errorf("expected SuiteError, got %T: %v", err, err)
	}
}

func TestEncryptDecryptRestoresMetadata(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "owned.txt", []byte("content"))
	if err := os.Chmod(src, 0o640); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	mtime := time.Unix(1_650_000_000, 0)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	opts := DefaultOptions()
	password := []byte("pw")
	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}
	outPath, err := DecryptFile(containerPath, password)
	if err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("restored permissions = %o, want %o", info.Mode().Perm(), 0o640)
	}
	if info.ModTime().Unix() != mtime.Unix() {
		t.Errorf("restored mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestEncryptDecryptRoundTripLegacyKDF(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("legacy kdf path content")
	src := writeTempFile(t, dir, "legacy.txt", plaintext)

	opts := Options{
		ChunkSize: 32,
		KDF:       KDFParams{MemoryKiB: 65536, Iterations: 10000, Parallelism: 1},
		Suite:     SuiteXChaCha20,
		LegacyKDF: true,
	}
	password := []byte("pw")

	containerPath, err := EncryptFile(src, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	raw, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	h, err := decodeHeader(containerPath, raw[:fixedHdrSize])
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if h.Flags&flagLegacyKDF == 0 {
		t.Fatal("expected flagLegacyKDF to be set in header")
	}

	outPath, err := DecryptFile(containerPath, password)
	if err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("decrypted content mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncryptIndependentRunsDiffer(t *testing.T) {
	// Two independent encryptions of identical plaintext must not collide
	// in container name or ciphertext, since Salt/NonceBase are fresh
	// random draws each call (spec.md §3 invariant 1).
	dir := t.TempDir()
	password := []byte("pw")
	opts := DefaultOptions()

	srcA := writeTempFile(t, dir, "a.txt", []byte("same content"))
	containerA, err := EncryptFile(srcA, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile a: %v", err)
	}

	srcB := writeTempFile(t, dir, "a.txt", []byte("same content"))
	containerB, err := EncryptFile(srcB, password, opts)
	if err != nil {
		t.Fatalf("EncryptFile b: %v", err)
	}

	if containerA == containerB {
		t.Errorf("expected distinct container names for independent encryptions, got %q twice", containerA)
	}

	rawA, _ := os.ReadFile(containerA)
	rawB, _ := os.ReadFile(containerB)
	if bytes.Equal(rawA, rawB) {
		t.Error("expected distinct ciphertext for independent encryptions of identical plaintext")
	}
}
