package bitcoin

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Hash20Size is the length in bytes of a Hash20, the size of a RIPEMD160(SHA256(x)) digest used
// for P2PKH public key hashes.
const Hash20Size = 20

// Hash20 holds a 20 byte digest in little-endian byte order, as used internally by the wire
// protocol. Its string and JSON forms are big-endian, matching how addresses and hashes are
// conventionally displayed.
type Hash20 [Hash20Size]byte

// NewHash20 builds a Hash20 from b, which must be exactly Hash20Size bytes already in internal
// (little-endian) order.
func NewHash20(b []byte) (*Hash20, error) {
	if len(b) != Hash20Size {
		return nil, fmt.Errorf("hash20: wrong byte length %d", len(b))
	}

	var h Hash20
	copy(h[:], b)
	return &h, nil
}

// NewHash20FromStr parses a big-endian hex string into a Hash20, reversing it into internal
// byte order.
func NewHash20FromStr(s string) (*Hash20, error) {
	if len(s) != 2*Hash20Size {
		return nil, fmt.Errorf("hash20: wrong hex length %d", len(s))
	}

	decoded := make([]byte, Hash20Size)
	if _, err := hex.Decode(decoded, []byte(s)); err != nil {
		return nil, err
	}

	var h Hash20
	reverseHash20(h[:], decoded)
	return &h, nil
}

// NewHash20FromData hashes b with Hash160 and returns the result as a Hash20.
func NewHash20FromData(b []byte) (*Hash20, error) {
	return NewHash20(Hash160(b))
}

// DeserializeHash20 reads a Hash20 from r in wire (little-endian) order.
func DeserializeHash20(r io.Reader) (*Hash20, error) {
	var h Hash20
	if _, err := r.Read(h[:]); err != nil {
		return nil, err
	}
	return &h, nil
}

// Bytes returns the digest's internal byte order.
func (h Hash20) Bytes() []byte {
	return h[:]
}

// SetBytes overwrites the digest's value; b must be Hash20Size bytes in internal order.
func (h *Hash20) SetBytes(b []byte) error {
	if len(b) != Hash20Size {
		return fmt.Errorf("hash20: wrong byte length %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// String returns the big-endian hex representation of the hash.
func (h *Hash20) String() string {
	var reversed [Hash20Size]byte
	reverseHash20(reversed[:], h[:])
	return hex.EncodeToString(reversed[:])
}

// Equal reports whether h and o hold the same value, treating two nil pointers as equal.
func (h *Hash20) Equal(o *Hash20) bool {
	if h == nil || o == nil {
		return h == o
	}
	return bytes.Equal(h[:], o[:])
}

// Serialize writes the hash to w in wire (little-endian) order.
func (h Hash20) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// Deserialize reads the hash from buf in wire (little-endian) order.
func (h *Hash20) Deserialize(buf *bytes.Reader) error {
	_, err := buf.Read(h[:])
	return err
}

// MarshalJSON encodes the hash as a big-endian hex string.
func (h Hash20) MarshalJSON() ([]byte, error) {
	var reversed [Hash20Size]byte
	reverseHash20(reversed[:], h[:])
	return []byte(`"` + hex.EncodeToString(reversed[:]) + `"`), nil
}

// UnmarshalJSON decodes a big-endian hex string into the hash.
func (h *Hash20) UnmarshalJSON(data []byte) error {
	if len(data) != 2*Hash20Size+2 {
		return fmt.Errorf("hash20: wrong quoted hex length %d", len(data)-2)
	}

	decoded := make([]byte, Hash20Size)
	if _, err := hex.Decode(decoded, data[1:len(data)-1]); err != nil {
		return err
	}

	reverseHash20(h[:], decoded)
	return nil
}

// Scan implements the database/sql Scanner interface.
func (h *Hash20) Scan(data interface{}) error {
	b, ok := data.([]byte)
	if !ok {
		return errors.New("hash20: column value is not bytes")
	}
	return h.SetBytes(b)
}

// reverseHash20 writes src to dst in reverse byte order.
func reverseHash20(dst, src []byte) {
	last := Hash20Size - 1
	for i, b := range src {
		dst[last-i] = b
	}
}
