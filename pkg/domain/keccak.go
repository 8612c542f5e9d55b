package domain

import (
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// DeriveAddress takes the low 20 bytes of the Keccak-256 digest of parts.
func DeriveAddress(parts ...[]byte) Address {
	digest := Keccak256(parts...)
	var a Address
	copy(a[:], digest[12:])
	return a
}
