// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"

	"github.com/pkg/errors"
)

var (
	endian = binary.LittleEndian
)

// ReadVarInt reads a CompactSize ("var-int") encoded value from r and returns it as a uint64.
func ReadVarInt(r io.Reader) (uint64, error) {
	_, result, err := ReadVarIntN(r)
	return result, err
}

// ReadVarIntN reads a CompactSize encoded value from r and returns its encoded size in bytes
// along with the decoded value.
func ReadVarIntN(r io.Reader) (uint64, uint64, error) {
	var discriminant uint8
	if err := binary.Read(r, endian, &discriminant); err != nil {
		return 0, 0, err
	}

	switch discriminant {
	case 0xff:
		var sv uint64
		if err := binary.Read(r, endian, &sv); err != nil {
			return 0, 0, err
		}

		min := uint64(0x100000000)
		if sv < min {
			return 0, 0, errors.Errorf("non-canonical varint %x - discriminant %x must encode a "+
				"value greater than %x", sv, discriminant, min)
		}

		return 9, sv, nil

	case 0xfe:
		var sv uint32
		if err := binary.Read(r, endian, &sv); err != nil {
			return 0, 0, err
		}

		min := uint32(0x10000)
		if sv < min {
			return 0, 0, errors.Errorf("non-canonical varint %x - discriminant %x must encode a "+
				"value greater than %x", sv, discriminant, min)
		}

		return 5, uint64(sv), nil

	case 0xfd:
		var sv uint16
		if err := binary.Read(r, endian, &sv); err != nil {
			return 0, 0, err
		}

		min := uint16(0xfd)
		if sv < min {
			return 0, 0, errors.Errorf("non-canonical varint %x - discriminant %x must encode a "+
				"value greater than %x", sv, discriminant, min)
		}

		return 3, uint64(sv), nil

	default:
		return 1, uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w as a CompactSize using the fewest bytes that can represent it.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return binary.Write(w, endian, uint8(val))
	}

	if val <= math.MaxUint16 {
		if err := binary.Write(w, endian, uint8(0xfd)); err != nil {
			return err
		}
		return binary.Write(w, endian, uint16(val))
	}

	if val <= math.MaxUint32 {
		if err := binary.Write(w, endian, uint8(0xfe)); err != nil {
			return err
		}
		return binary.Write(w, endian, uint32(val))
	}

	if err := binary.Write(w, endian, uint8(0xff)); err != nil {
		return err
	}
	return binary.Write(w, endian, val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize val as a CompactSize.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= math.MaxUint16 {
		return 3
	}
	if val <= math.MaxUint32 {
		return 5
	}
	return 9
}

// ReadVarBytes reads a variable length byte array. It is encoded as a CompactSize containing the
// length of the array followed by the bytes themselves. An error is returned if the length is
// greater than maxAllowed, which helps protect against memory exhaustion from malformed input.
// fieldName is only used to add context to the error message.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	if count > maxAllowed {
		return nil, errors.Errorf("%s is larger than the max allowed size [count %d, max %d]",
			fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a CompactSize containing the
// number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}

	_, err := w.Write(b)
	return err
}

// NewReaderFromHex decodes hex text into a *bytes.Reader suitable for MsgTx.Deserialize. It
// accepts the same even-length [0-9a-fA-F] encoding used throughout the package's text
// marshaling.
func NewReaderFromHex(s string) (*bytes.Reader, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}

	return bytes.NewReader(b), nil
}
