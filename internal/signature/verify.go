// Package signature verifies interaction webhook signatures.
//
// The chat platform signs every interaction callback with an Ed25519 key:
// the detached signature covers the timestamp header concatenated with the
// raw request body. Verification must run on the exact bytes that are
// later parsed as JSON.
package signature

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Verify reports whether sigHex is a valid Ed25519 signature by pubKeyHex
// over timestamp || rawBody. Malformed hex input or a key/signature of the
// wrong length is a verification failure, not an error.
func Verify(rawBody []byte, timestamp, sigHex, pubKeyHex string) bool {
	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)

	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig)
}
