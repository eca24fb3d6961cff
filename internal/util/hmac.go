package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// DeriveHMAC returns HMAC-SHA256(key, context). Deterministic: the same key
// and context always produce the same 32 bytes.
func DeriveHMAC(key, context []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(context)
	return mac.Sum(nil)
}

// DeriveHMACString returns DeriveHMAC encoded with unpadded URL-safe base64.
func DeriveHMACString(key []byte, context string) string {
	return base64.RawURLEncoding.EncodeToString(DeriveHMAC(key, []byte(context)))
}
