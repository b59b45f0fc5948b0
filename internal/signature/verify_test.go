package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
)

// signedRequest produces a valid (pubKeyHex, sigHex) pair for the given
// timestamp and body.
func signedRequest(t *testing.T, timestamp string, body []byte) (string, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey error = %v", err)
	}
	msg := append([]byte(timestamp), body...)
	sig := ed25519.Sign(priv, msg)
	return hex.EncodeToString(pub), hex.EncodeToString(sig)
}

func TestVerify_ValidSignature(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, sigHex := signedRequest(t, "1700000000", body)

	if !Verify(body, "1700000000", sigHex, pubHex) {
		t.Error("Verify = false, want true for a valid signature")
	}
}

func TestVerify_MutatedSignature(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, sigHex := signedRequest(t, "1700000000", body)

	sig, _ := hex.DecodeString(sigHex)
	sig[0] ^= 0x01
	if Verify(body, "1700000000", hex.EncodeToString(sig), pubHex) {
		t.Error("Verify = true, want false for a mutated signature")
	}
}

func TestVerify_MutatedBody(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, sigHex := signedRequest(t, "1700000000", body)

	tampered := []byte(`{"type":2}`)
	if Verify(tampered, "1700000000", sigHex, pubHex) {
		t.Error("Verify = true, want false for a mutated body")
	}
}

func TestVerify_MutatedTimestamp(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, sigHex := signedRequest(t, "1700000000", body)

	if Verify(body, "1700000001", sigHex, pubHex) {
		t.Error("Verify = true, want false for a mutated timestamp")
	}
}

func TestVerify_MalformedHexSignature(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, _ := signedRequest(t, "1700000000", body)

	if Verify(body, "1700000000", "not-hex", pubHex) {
		t.Error("Verify = true, want false for malformed signature hex")
	}
}

func TestVerify_MalformedHexPublicKey(t *testing.T) {
	body := []byte(`{"type":1}`)
	_, sigHex := signedRequest(t, "1700000000", body)

	if Verify(body, "1700000000", sigHex, "zz") {
		t.Error("Verify = true, want false for malformed public key hex")
	}
}

func TestVerify_WrongKeyLength(t *testing.T) {
	body := []byte(`{"type":1}`)
	_, sigHex := signedRequest(t, "1700000000", body)

	if Verify(body, "1700000000", sigHex, "abcd") {
		t.Error("Verify = true, want false for a truncated public key")
	}
}

func TestVerify_WrongSignatureLength(t *testing.T) {
	body := []byte(`{"type":1}`)
	pubHex, _ := signedRequest(t, "1700000000", body)

	if Verify(body, "1700000000", "abcd", pubHex) {
		t.Error("Verify = true, want false for a truncated signature")
	}
}
