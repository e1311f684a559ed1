package bitcoin

import (
	"encoding/base64"

	"github.com/btcsuite/btcutil/base58"
)

// Base64 returns the Base64 encoding of the input.
//
// See https://en.wikipedia.org/wiki/Base64
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode base64 decodes the argument and returns the result.
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Base58 returns the Base58 encoding of the input.
//
// See https://en.wikipedia.org/wiki/Base58
func Base58(b []byte) string {
	return base58.Encode(b)
}

// Base58Decode base58 decodes the argument and returns the result.
func Base58Decode(s string) []byte {
	return base58.Decode(s)
}
