package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "test-secret-key"

	for _, plaintext := range []string{"imap-password", "", "unicode: héllo wörld", "a very long password with spaces and symbols !@#$%"} {
		encrypted, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("Encrypt(%q) error = %v", plaintext, err)
		}
		if encrypted == plaintext && plaintext != "" {
			t.Errorf("Encrypt(%q) returned plaintext", plaintext)
		}

		decrypted, err := Decrypt(encrypted, key)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt("secret", "key-one")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(encrypted, "key-two"); err == nil {
		t.Fatal("expected error decrypting with wrong key")
	}
}

func TestDecryptGarbage(t *testing.T) {
	if _, err := Decrypt("not base64 at all!", "key"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := Decrypt("dG9vc2hvcnQ=", "key"); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}
