package v3

import (
	"bytes"
	"testing"
)

// authProtocols enumerates every auth protocol this package claims to
// support (TestPrivacyRoundTrip's table does the same for privacy
// protocols), so the tests below cover all of them instead of picking one
// representative.
var authProtocols = []AuthProtocol{AuthMD5, AuthSHA1, AuthSHA224, AuthSHA256, AuthSHA384, AuthSHA512}

func TestHMACDigestIsDeterministicAndSensitiveToInput(t *testing.T) {
	key := []byte("fleet-operator-auth-key")
	msg := []byte("agent router7.lab.example/GET 1.3.6.1.2.1.1.3.0")

	for _, proto := range authProtocols {
		t.Run(string(proto), func(t *testing.T) {
			d1, err := HMACDigest(proto, key, msg)
			if err != nil {
				t.Fatalf("HMACDigest: %v", err)
			}
			d2, err := HMACDigest(proto, key, msg)
			if err != nil {
				t.Fatalf("HMACDigest: %v", err)
			}
			if !bytes.Equal(d1, d2) {
				t.Fatalf("HMACDigest not deterministic for %s", proto)
			}

			tampered, err := HMACDigest(proto, key, append(append([]byte{}, msg...), '!'))
			if err != nil {
				t.Fatalf("HMACDigest: %v", err)
			}
			if bytes.Equal(d1, tampered) {
				t.Fatalf("HMACDigest did not change for %s when the message changed", proto)
			}

			ok, err := VerifyHMAC(proto, key, msg, d1)
			if err != nil || !ok {
				t.Fatalf("VerifyHMAC should accept its own digest for %s: ok=%v err=%v", proto, ok, err)
			}
			if ok, _ := VerifyHMAC(proto, key, msg, tampered); ok {
				t.Fatalf("VerifyHMAC accepted a digest computed over a different message for %s", proto)
			}
		})
	}
}

func TestLocalizeKeyDiversifiesPerEngine(t *testing.T) {
	// RFC 3414 §A.2's whole point: the same passphrase must localize to a
	// different key for every engine, so discovering one agent's key
	// doesn't hand you every other agent's key in the fleet.
	engineA := []byte(GenerateEngineID("router7.lab.example"))
	engineB := []byte(GenerateEngineID("switch3.lab.example"))
	if bytes.Equal(engineA, engineB) {
		t.Fatal("GenerateEngineID produced identical IDs for two different agent names")
	}

	keyA1, err := LocalizeKey(AuthSHA256, []byte("shared-passphrase"), engineA)
	if err != nil {
		t.Fatalf("LocalizeKey: %v", err)
	}
	keyA2, err := LocalizeKey(AuthSHA256, []byte("shared-passphrase"), engineA)
	if err != nil {
		t.Fatalf("LocalizeKey: %v", err)
	}
	if !bytes.Equal(keyA1, keyA2) {
		t.Fatal("LocalizeKey is not deterministic for the same engineID")
	}

	keyB, err := LocalizeKey(AuthSHA256, []byte("shared-passphrase"), engineB)
	if err != nil {
		t.Fatalf("LocalizeKey: %v", err)
	}
	if bytes.Equal(keyA1, keyB) {
		t.Fatal("LocalizeKey produced the same localized key for two different engines")
	}
}

func TestPrivacyRoundTrip(t *testing.T) {
	iv := []byte("fleet-cfb-iv-0123456789abcdef!!")
	plaintext := []byte("interface Gi0/1 ifInOctets=128471")

	tests := []struct {
		proto PrivProtocol
		key   []byte
	}{
		{PrivDES, []byte("des-key1")},
		{Priv3DES, []byte("0123456789abcdef01234567")},
		{PrivAES128, []byte("0123456789abcdef")},
		{PrivAES192, []byte("0123456789abcdef01234567")},
		{PrivAES256, []byte("0123456789abcdef0123456789abcdef")},
	}

	for _, tc := range tests {
		t.Run(string(tc.proto), func(t *testing.T) {
			ciphertext, err := EncryptCFB(tc.proto, tc.key, iv, plaintext)
			if err != nil {
				t.Fatalf("EncryptCFB: %v", err)
			}
			if bytes.Equal(ciphertext, plaintext) {
				t.Fatalf("%s ciphertext equals plaintext", tc.proto)
			}
			decrypted, err := DecryptCFB(tc.proto, tc.key, iv, ciphertext)
			if err != nil {
				t.Fatalf("DecryptCFB: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Fatalf("%s round trip mismatch: got %q, want %q", tc.proto, decrypted, plaintext)
			}
		})
	}
}
