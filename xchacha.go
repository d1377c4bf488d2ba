package aef

import "golang.org/x/crypto/chacha20poly1305"

// xchachaAEAD implements suite 0 (spec.md §3): XChaCha20-Poly1305 with a
// 24-byte nonce. Grounded on the teacher's cipher.go ChaCha20Poly1305Engine,
// switched to the X-variant for the wider nonce this format requires.
type xchachaAEAD struct{}

func (xchachaAEAD) nonceLen() int { return chacha20poly1305.NonceSizeX }

func (xchachaAEAD) seal(key, nonce, ad, plaintext []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, NewKDFError("failed to initialize xchacha20-poly1305", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, ad)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]
	return ct, tag, nil
}

func (xchachaAEAD) open(key, nonce, ad, ciphertext, tag []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, NewKDFError("failed to initialize xchacha20-poly1305", err)
	}
	combined := make([]byte, 0, len(ciphertext)+len(tag))
	combined = append(combined, ciphertext...)
	combined = append(combined, tag...)
	pt, err := aead.Open(nil, nonce, combined, ad)
	if err != nil {
		return nil, &AuthFailureError{Context: "chunk"}
	}
	return pt, nil
}
