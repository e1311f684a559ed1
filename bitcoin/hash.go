package bitcoin

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Sha256 returns the SHA-256 digest of b.
func Sha256(b []byte) []byte {
	digest := sha256.Sum256(b)
	return digest[:]
}

// DoubleSha256 returns SHA-256(SHA-256(b)), the digest used throughout the transaction id and
// signature hash algorithms.
func DoubleSha256(b []byte) []byte {
	return Sha256(Sha256(b))
}

// Ripemd160 returns the RIPEMD-160 digest of b.
func Ripemd160(b []byte) []byte {
	hasher := ripemd160.New()
	hasher.Write(b)
	return hasher.Sum(nil)
}

// Hash160 returns RIPEMD160(SHA256(b)), the digest used to derive a P2PKH address from a public
// key.
func Hash160(b []byte) []byte {
	return Ripemd160(Sha256(b))
}
