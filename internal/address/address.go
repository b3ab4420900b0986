// Package address implements content addresses: an algorithm tag plus a
// 32-byte cryptographic digest, with a stable "<alg>:<hex>" textual codec.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

// Algorithm identifies the hash function used to derive a digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	Blake3 Algorithm = "blake3"
)

// DigestSize is the width, in bytes, of every supported digest.
const DigestSize = 32

var (
	ErrInvalidFormat        = errors.New("address: invalid format")
	ErrUnsupportedAlgorithm = errors.New("address: unsupported algorithm")
	ErrInvalidHex           = errors.New("address: invalid hexadecimal encoding")
	ErrInvalidHashLength    = errors.New("address: invalid hash length")
)

// Address is a content address: an algorithm tag plus its digest. Equality
// is (algorithm, digest) byte-equality — two addresses with the same digest
// but different algorithms are not equal.
type Address struct {
	algorithm Algorithm
	digest    [DigestSize]byte
}

// FromBytes computes the default (sha256) content address of data.
func FromBytes(data []byte) Address {
	return FromBytesWithAlgorithm(data, SHA256)
}

// FromBytesWithAlgorithm computes the content address of data using alg.
func FromBytesWithAlgorithm(data []byte, alg Algorithm) Address {
	var digest [DigestSize]byte
	switch alg {
	case Blake3:
		sum := blake3.Sum256(data)
		digest = sum
	case SHA256:
		fallthrough
	default:
		digest = sha256.Sum256(data)
		alg = SHA256
	}
	return Address{algorithm: alg, digest: digest}
}

// Algorithm returns the hash algorithm tag.
func (a Address) Algorithm() Algorithm {
	return a.algorithm
}

// Digest returns a copy of the raw digest bytes.
func (a Address) Digest() [DigestSize]byte {
	return a.digest
}

// String renders the canonical "<alg>:<hex>" textual form.
func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.algorithm, hex.EncodeToString(a.digest[:]))
}

// Equal reports whether two addresses have the same algorithm and digest.
func (a Address) Equal(other Address) bool {
	return a.algorithm == other.algorithm && a.digest == other.digest
}

// IsZero reports whether a is the zero value (no algorithm set).
func (a Address) IsZero() bool {
	return a.algorithm == ""
}

// Parse decodes the canonical "<alg>:<hex>" textual form.
func Parse(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Address{}, ErrInvalidFormat
	}

	var alg Algorithm
	switch parts[0] {
	case string(SHA256):
		alg = SHA256
	case string(Blake3):
		alg = Blake3
	default:
		return Address{}, ErrUnsupportedAlgorithm
	}

	raw, err := hex.DecodeString(parts[1])
	if err != nil {
		return Address{}, ErrInvalidHex
	}
	if len(raw) != DigestSize {
		return Address{}, ErrInvalidHashLength
	}

	var digest [DigestSize]byte
	copy(digest[:], raw)
	return Address{algorithm: alg, digest: digest}, nil
}
