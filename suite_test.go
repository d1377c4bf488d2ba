package aef

import "testing"

func TestSuiteNameTable(t *testing.T) {
	cases := []struct {
		suite byte
		want  string
	}{
		{byte(SuiteXChaCha20), "xchacha20"},
		{byte(SuiteAESGCMSIV), "aes-gcm-siv"},
		{byte(SuiteTwofishGCMSIV), "twofish-gcm-siv"},
		{byte(SuiteSerpentGCMSIV), "serpent-gcm-siv"},
		{byte(SuiteCamelliaGCMSIV), "camellia-gcm-siv"},
		{byte(SuiteAuroraSIV), "aurora-ctr"}, // intentionally mismatched vs. construction
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			got, err := suiteName(c.suite)
			if err != nil {
				t.Fatalf("suiteName(%d): %v", c.suite, err)
			}
			if got != c.want {
				t.Errorf("suiteName(%d) = %q, want %q", c.suite, got, c.want)
			}
		})
	}
}

func TestSuiteNameUnknown(t *testing.T) {
	if _, err := suiteName(99); err == nil {
		t.Fatal("expected error for unknown suite tag")
	} else if !IsSuiteError(err) {
		t.Errorf("expected SuiteError, got %T", err)
	}
}

func TestParseCipherName(t *testing.T) {
	cases := []struct {
		in   string
		want CipherSuite
	}{
		{"xchacha20", SuiteXChaCha20},
		{"XChaCha20", SuiteXChaCha20},
		{"aes", SuiteAESGCMSIV},
		{"aes-gcm-siv", SuiteAESGCMSIV},
		{"twofish", SuiteTwofishGCMSIV},
		{"serpent", SuiteSerpentGCMSIV},
		{"camellia", SuiteCamelliaGCMSIV},
		{"aurora", SuiteAuroraSIV},
		{"aurora-siv", SuiteAuroraSIV},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseCipherName(c.in)
			if err != nil {
				t.Fatalf("ParseCipherName(%q): %v", c.in, err)
			}
			if got != c.want {
				t.Errorf("ParseCipherName(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestParseCipherNameUnknown(t *testing.T) {
	if _, err := ParseCipherName("not-a-cipher"); err == nil {
		t.Fatal("expected error for unrecognized cipher name")
	}
}

func TestNonceLenForSuite(t *testing.T) {
	cases := []struct {
		suite byte
		want  int
	}{
		{byte(SuiteXChaCha20), 24},
		{byte(SuiteAESGCMSIV), 12},
		{byte(SuiteTwofishGCMSIV), 12},
		{byte(SuiteSerpentGCMSIV), 12},
		{byte(SuiteCamelliaGCMSIV), 12},
		{byte(SuiteAuroraSIV), 16},
	}
	for _, c := range cases {
		got, err := nonceLenForSuite(c.suite)
		if err != nil {
			t.Fatalf("nonceLenForSuite(%d): %v", c.suite, err)
		}
		if got != c.want {
			t.Errorf("nonceLenForSuite(%d) = %d, want %d", c.suite, got, c.want)
		}
	}
}

func TestSealOpenAllSuitesRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	ad := []byte("associated data")
	plaintext := []byte("the rain in spain falls mainly on the plain")

	for _, suite := range allSuites() {
		t.Run(suite.String(), func(t *testing.T) {
			nonceLen, err := nonceLenForSuite(byte(suite))
			if err != nil {
				t.Fatalf("nonceLenForSuite: %v", err)
			}
			nonce := make([]byte, nonceLen)
			for i := range nonce {
				nonce[i] = byte(i + 1)
			}

			ct, tag, err := seal(byte(suite), key, nonce, ad, plaintext)
			if err != nil {
				t.Fatalf("seal: %v", err)
			}
			if len(tag) != tagSize {
				t.Fatalf("tag length = %d, want %d", len(tag), tagSize)
			}
			if len(ct) != len(plaintext) {
				t.Fatalf("ciphertext length = %d, want %d", len(ct), len(plaintext))
			}

			pt, err := open(byte(suite), key, nonce, ad, ct, tag)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if string(pt) != string(plaintext) {
				t.Errorf("round trip mismatch: got %q, want %q", pt, plaintext)
			}

			tamperedTag := make([]byte, len(tag))
			copy(tamperedTag, tag)
			tamperedTag[0] ^= 0xff
			if _, err := open(byte(suite), key, nonce, ad, ct, tamperedTag); err == nil {
				t.Error("expected authentication failure with tampered tag")
			}

			tamperedCT := make([]byte, len(ct))
			copy(tamperedCT, ct)
			if len(tamperedCT) > 0 {
				tamperedCT[0] ^= 0xff
			}
			if len(ct) > 0 {
				if _, err := open(byte(suite), key, nonce, ad, tamperedCT, tag); err == nil {
					t.Error("expected authentication failure with tampered ciphertext")
				}
			}

			tamperedAD := append([]byte{}, ad...)
			tamperedAD[0] ^= 0xff
			if _, err := open(byte(suite), key, nonce, tamperedAD, ct, tag); err == nil {
				t.Error("expected authentication failure with tampered associated data")
			}
		})
	}
}
