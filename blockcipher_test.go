package aef

import (
	"bytes"
	"testing"
)

func TestBlockFactoriesRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 5)
	}
	plaintext := make([]byte, blockSize)
	for i := range plaintext {
		plaintext[i] = byte(255 - i)
	}

	factories := map[string]blockFactory{
		"aes":      newAESBlockFactory(),
		"twofish":  newTwofishBlockFactory(),
		"serpent":  newSerpentBlockFactory(),
		"camellia": newCamelliaBlockFactory(),
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			block, err := factory(key)
			if err != nil {
				t.Fatalf("factory: %v", err)
			}
			if block.BlockSize() != blockSize {
				t.Fatalf("BlockSize() = %d, want %d", block.BlockSize(), blockSize)
			}

			ct := make([]byte, blockSize)
			block.Encrypt(ct, plaintext)
			if bytes.Equal(ct, plaintext) {
				t.Error("ciphertext should not equal plaintext")
			}

			pt := make([]byte, blockSize)
			block.Decrypt(pt, ct)
			if !bytes.Equal(pt, plaintext) {
				t.Errorf("decrypt(encrypt(x)) != x: got %x, want %x", pt, plaintext)
			}
		})
	}
}

func TestSerpentAndCamelliaProduceDistinctCiphertext(t *testing.T) {
	key := make([]byte, 32)
	plaintext := make([]byte, blockSize)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	serpent, err := newSerpentBlockFactory()(key)
	if err != nil {
		t.Fatalf("serpent factory: %v", err)
	}
	camellia, err := newCamelliaBlockFactory()(key)
	if err != nil {
		t.Fatalf("camellia factory: %v", err)
	}

	ctA := make([]byte, blockSize)
	ctB := make([]byte, blockSize)
	serpent.Encrypt(ctA, plaintext)
	camellia.Encrypt(ctB, plaintext)

	if bytes.Equal(ctA, ctB) {
		t.Error("serpent-like and camellia-like ciphers should diverge for the same key and plaintext")
	}
}
