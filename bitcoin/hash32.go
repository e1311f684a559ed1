package bitcoin

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// Hash32Size is the length in bytes of a Hash32, the size of a double SHA256 digest.
const Hash32Size = 32

// Hash32 holds a 32 byte digest in little-endian byte order, the layout used on the wire for
// transaction ids and block hashes. Its string and JSON forms are big-endian, matching how ids
// are conventionally displayed.
type Hash32 [Hash32Size]byte

// NewHash32 builds a Hash32 from b, which must be exactly Hash32Size bytes already in internal
// (little-endian) order.
func NewHash32(b []byte) (*Hash32, error) {
	var h Hash32
	if err := h.SetBytes(b); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewHash32FromStr parses a big-endian hex string into a Hash32, reversing it into internal
// byte order.
func NewHash32FromStr(s string) (*Hash32, error) {
	var h Hash32
	if err := h.SetString(s); err != nil {
		return nil, err
	}
	return &h, nil
}

// DoubleSha256Hash32 hashes b with double SHA256 and returns the result as a Hash32.
func DoubleSha256Hash32(b []byte) Hash32 {
	var h Hash32
	copy(h[:], DoubleSha256(b))
	return h
}

// Bytes returns the digest's internal byte order.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// SetBytes overwrites the digest's value; b must be Hash32Size bytes in internal order.
func (h *Hash32) SetBytes(b []byte) error {
	if len(b) != Hash32Size {
		return errors.Wrapf(ErrWrongSize, "hash32 bytes %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// SetString parses a big-endian hex string into the hash.
func (h *Hash32) SetString(s string) error {
	if len(s) != 2*Hash32Size {
		return errors.Wrapf(ErrWrongSize, "hash32 hex %d", len(s))
	}

	decoded := make([]byte, Hash32Size)
	if _, err := hex.Decode(decoded, []byte(s)); err != nil {
		return err
	}

	reverseHash32(h[:], decoded)
	return nil
}

// String returns the big-endian hex representation of the hash.
func (h Hash32) String() string {
	var reversed [Hash32Size]byte
	reverseHash32(reversed[:], h[:])
	return hex.EncodeToString(reversed[:])
}

// Equal reports whether h and o hold the same value, treating two nil pointers as equal.
func (h *Hash32) Equal(o *Hash32) bool {
	if h == nil || o == nil {
		return h == o
	}
	return bytes.Equal(h[:], o[:])
}

// Serialize writes the hash to w in wire (little-endian) order.
func (h Hash32) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// Deserialize reads the hash from r in wire (little-endian) order.
func (h *Hash32) Deserialize(r io.Reader) error {
	_, err := io.ReadFull(r, h[:])
	return err
}

// MarshalJSON encodes the hash as a big-endian hex string.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON decodes a big-endian hex string into the hash.
func (h *Hash32) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return errors.Wrap(ErrWrongSize, "hash32 json")
	}
	return h.SetString(string(data[1 : len(data)-1]))
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	return h.SetString(string(text))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Hash32) MarshalBinary() ([]byte, error) {
	return h.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Hash32) UnmarshalBinary(data []byte) error {
	return h.SetBytes(data)
}

// reverseHash32 writes src to dst in reverse byte order.
func reverseHash32(dst, src []byte) {
	last := Hash32Size - 1
	for i, b := range src {
		dst[last-i] = b
	}
}
