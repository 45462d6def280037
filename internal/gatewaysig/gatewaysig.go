// Package gatewaysig implements the gateway's order signature scheme:
// hex-encoded HMAC-SHA256 of "orderID|paymentID" under the account
// secret.
package gatewaysig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the signature for an (order, payment) pair.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the valid signature for the pair.
// Comparison is constant-time.
func Verify(orderID, paymentID, secret, sig string) bool {
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}
