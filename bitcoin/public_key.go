package bitcoin

import (
	"encoding/hex"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

const (
	PublicKeyCompressedLength = 33
)

// PublicKey is a point on the secp256k1 curve.
type PublicKey struct {
	X, Y big.Int
}

// PublicKeyFromStr decodes a hex encoded compressed public key.
func PublicKeyFromStr(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, err
	}

	return PublicKeyFromBytes(b)
}

// PublicKeyFromBytes decodes a compressed public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var result PublicKey
	if err := result.SetBytes(b); err != nil {
		return PublicKey{}, err
	}

	return result, nil
}

// SetBytes decompresses a 33 byte public key into this object.
func (k *PublicKey) SetBytes(b []byte) error {
	if len(b) != PublicKeyCompressedLength {
		return errors.Wrapf(ErrWrongSize, "public key %d, want %d", len(b),
			PublicKeyCompressedLength)
	}

	x, y, err := decompressPoint(b)
	if err != nil {
		return err
	}

	k.X, k.Y = x, y
	return nil
}

// SetString decompresses a hex encoded public key into this object.
func (k *PublicKey) SetString(s string) error {
	nk, err := PublicKeyFromStr(s)
	if err != nil {
		return err
	}

	*k = nk
	return nil
}

// Bytes returns the compressed serialization of the key.
func (k PublicKey) Bytes() []byte {
	result := make([]byte, PublicKeyCompressedLength)
	if k.Y.Bit(0) == 1 {
		result[0] = 0x03
	} else {
		result[0] = 0x02
	}

	// x is right aligned so short values are zero padded.
	xb := k.X.Bytes()
	copy(result[PublicKeyCompressedLength-len(xb):], xb)
	return result
}

// String returns the compressed serialization hex encoded.
func (k PublicKey) String() string {
	return hex.EncodeToString(k.Bytes())
}

// RawAddress returns the PKH raw address for this key.
func (k PublicKey) RawAddress() (RawAddress, error) {
	return NewRawAddressPKH(Hash160(k.Bytes()))
}

// LockingScript returns a P2PKH locking script paying to this key.
func (k PublicKey) LockingScript() (Script, error) {
	return PKHTemplate.LockingScript([]PublicKey{k})
}

// IsEmpty returns true if the point is not set.
func (k PublicKey) IsEmpty() bool {
	return k.X.Cmp(&zeroBigInt) == 0 && k.Y.Cmp(&zeroBigInt) == 0
}

func (k PublicKey) Equal(o PublicKey) bool {
	return k.X.Cmp(&o.X) == 0 && k.Y.Cmp(&o.Y) == 0
}

func (k PublicKey) Serialize(w io.Writer) error {
	_, err := w.Write(k.Bytes())
	return err
}

func (k *PublicKey) Deserialize(r io.Reader) error {
	b := make([]byte, PublicKeyCompressedLength)
	if _, err := io.ReadFull(r, b); err != nil {
		return err
	}

	return k.SetBytes(b)
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return errors.New("missing quotes")
	}
	return k.SetString(string(data[1 : len(data)-1]))
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	return k.SetString(string(text))
}

func (k PublicKey) MarshalBinary() ([]byte, error) {
	return k.Bytes(), nil
}

func (k *PublicKey) UnmarshalBinary(data []byte) error {
	return k.SetBytes(data)
}

// decompressPoint solves y^2 = x^3 + 7 for the y matching the parity encoded
// in the header byte.
func decompressPoint(b []byte) (big.Int, big.Int, error) {
	var x, y big.Int
	x.SetBytes(b[1:])

	ySq := new(big.Int).Exp(&x, big.NewInt(3), nil)
	ySq.Add(ySq, curveS256Params.B)
	if y.ModSqrt(ySq, curveS256Params.P) == nil {
		return x, y, ErrOutOfRangeKey
	}

	wantOdd := b[0] == 0x03
	if (y.Bit(0) == 1) != wantOdd {
		y.Sub(curveS256Params.P, &y)
	}

	if x.Sign() == 0 || y.Sign() == 0 {
		return x, y, ErrOutOfRangeKey
	}

	return x, y, nil
}
