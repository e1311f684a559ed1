package bitcoin

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

var (
	curveS256       = btcec.S256()
	curveS256Params = curveS256.Params()
	curveHalfOrder  = new(big.Int).Rsh(curveS256.N, 1)

	ErrBadKeyType = errors.New("Key type unknown")

	zeroBigInt big.Int
	zeroKey32  [32]byte
)

const (
	typeMainPrivKey = 0x80 // WIF mainnet prefix
	typeTestPrivKey = 0xef // WIF testnet prefix

	typeIntPrivKey = 0x40 // internal binary serialization prefix
)

// Key is a secp256k1 private key.
type Key struct {
	value big.Int
	net   Network
}

// KeyFromStr decodes a WIF (Wallet Import Format) string.
func KeyFromStr(s string) (Key, error) {
	number, net, err := wifDecode(s)
	if err != nil {
		return Key{}, err
	}

	return KeyFromNumber(number, net)
}

// KeyFromNumber creates a key from the big-endian bytes of the scalar value.
func KeyFromNumber(b []byte, net Network) (Key, error) {
	if err := checkKeyRange(b); err != nil {
		return Key{}, err
	}

	result := Key{net: net}
	result.value.SetBytes(b)
	return result, nil
}

// KeyFromBytes decodes the internal binary serialization: a type byte followed
// by the 32 byte scalar.
func KeyFromBytes(b []byte, net Network) (Key, error) {
	if len(b) != 33 || b[0] != typeIntPrivKey {
		return Key{}, ErrBadKeyType
	}

	return KeyFromNumber(b[1:], net)
}

// GenerateKey randomly generates a new key.
func GenerateKey(net Network) (Key, error) {
	key, err := ecdsa.GenerateKey(curveS256, rand.Reader)
	if err != nil {
		return Key{}, err
	}

	return Key{net: net, value: *key.D}, nil
}

// String returns the WIF encoding of the key.
func (k Key) String() string {
	prefix := byte(typeTestPrivKey)
	if k.net == MainNet {
		prefix = typeMainPrivKey
	}

	return encodeAddress(append([]byte{prefix}, k.Number()...))
}

// Network returns the network id for the key.
func (k Key) Network() Network {
	return k.net
}

func (k Key) Equal(other Key) bool {
	return k.net == other.net && k.value.Cmp(&other.value) == 0
}

// IsEmpty returns true if the scalar is zero.
func (k Key) IsEmpty() bool {
	return k.value.Cmp(&zeroBigInt) == 0
}

// SetString decodes a WIF string into this object.
func (k *Key) SetString(s string) error {
	nk, err := KeyFromStr(s)
	if err != nil {
		return err
	}

	*k = nk
	return nil
}

// DecodeString decodes a WIF string into this object.
func (k *Key) DecodeString(s string) error {
	return k.SetString(s)
}

// SetBytes decodes the internal binary serialization into this object. The
// network is retained from the current value.
func (k *Key) SetBytes(b []byte) error {
	nk, err := KeyFromBytes(b, k.net)
	if err != nil {
		return err
	}

	*k = nk
	return nil
}

// Bytes returns the type byte followed by the 32 byte scalar.
func (k Key) Bytes() []byte {
	return append([]byte{typeIntPrivKey}, k.Number()...)
}

// Number returns the 32 byte big-endian scalar, left padded with zeros.
func (k Key) Number() []byte {
	b := k.value.Bytes()
	if len(b) == 32 {
		return b
	}

	result := make([]byte, 32)
	copy(result[32-len(b):], b)
	return result
}

func (k Key) Serialize(w io.Writer) error {
	_, err := w.Write(k.Bytes())
	return err
}

func (k *Key) Deserialize(r io.Reader) error {
	b := make([]byte, 33)
	if _, err := io.ReadFull(r, b); err != nil {
		return errors.Wrap(err, "key")
	}

	return k.SetBytes(b)
}

// PublicKey returns the public key corresponding to this private key.
func (k Key) PublicKey() PublicKey {
	x, y := curveS256.ScalarBaseMult(k.Number())
	return PublicKey{X: *x, Y: *y}
}

// RawAddress returns a raw P2PKH address for this key.
func (k Key) RawAddress() (RawAddress, error) {
	return k.PublicKey().RawAddress()
}

// LockingScript returns a P2PKH locking script paying to this key.
func (k Key) LockingScript() (Script, error) {
	return k.PublicKey().LockingScript()
}

// Sign returns the deterministic (RFC 6979) ECDSA signature of the hash.
func (k Key) Sign(hash Hash32) (Signature, error) {
	return signRFC6979(k.value, hash[:])
}

// MarshalJSONMasked outputs data safe to log. It never includes the private
// key value.
func (k Key) MarshalJSONMasked() ([]byte, error) {
	return []byte("\"Public:" + k.PublicKey().String() + "\""), nil
}

func (k Key) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

func (k *Key) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return errors.New("missing quotes")
	}
	return k.SetString(string(data[1 : len(data)-1]))
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	return k.SetString(string(text))
}

func (k Key) MarshalBinary() ([]byte, error) {
	return k.Bytes(), nil
}

func (k *Key) UnmarshalBinary(data []byte) error {
	return k.SetBytes(data)
}

// wifDecode strips and validates the WIF envelope, returning the scalar bytes
// and the network the prefix byte names.
func wifDecode(s string) ([]byte, Network, error) {
	b, err := decodeAddress(s)
	if err != nil {
		return nil, InvalidNet, err
	}

	var net Network
	switch b[0] {
	case typeMainPrivKey:
		net = MainNet
	case typeTestPrivKey:
		net = TestNet
	default:
		return nil, InvalidNet, ErrBadKeyType
	}

	switch len(b) {
	case 34: // trailing 0x01 marks a compressed public key
		if b[33] != 0x01 {
			return nil, InvalidNet, errors.Wrapf(ErrBadKeyType,
				"uncompressed public key flag %x", b[33])
		}
		return b[1:33], net, nil
	case 33:
		return b[1:], net, nil
	}

	return nil, InvalidNet, errors.Wrapf(ErrBadKeyType, "length %d", len(b))
}

func checkKeyRange(b []byte) error {
	if bytes.Equal(b, zeroKey32[:]) {
		return ErrOutOfRangeKey
	}

	if bytes.Compare(b, curveS256Params.N.Bytes()) >= 0 {
		return ErrOutOfRangeKey
	}

	return nil
}

// encodeAddress appends a double SHA256 checksum and Base58 encodes the
// result. Shared by WIF key text and address text.
func encodeAddress(b []byte) string {
	checksum := DoubleSha256(b)
	return Base58(append(b, checksum[:4]...))
}

// decodeAddress reverses encodeAddress, verifying the checksum.
func decodeAddress(address string) ([]byte, error) {
	b := Base58Decode(address)
	if len(b) < 5 {
		return nil, ErrBadCheckSum
	}

	payload, tail := b[:len(b)-4], b[len(b)-4:]
	checksum := DoubleSha256(payload)
	if !bytes.Equal(checksum[:4], tail) {
		return nil, ErrBadCheckSum
	}

	return payload, nil
}
