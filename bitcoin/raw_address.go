package bitcoin

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	ScriptTypeEmpty = 0xff // Empty address
	ScriptTypePKH   = 0x20 // Public Key Hash
	ScriptTypePK    = 0x24 // Public Key

	ScriptHashLength = 20 // Length of a standard public key hash RIPEMD160(SHA256())

	// Versioned address type bytes used in the Base58Check text encoding. These mirror the
	// network byte conventions used by WIF private keys.
	AddressTypeMainPKH = 0x00
	AddressTypeTestPKH = 0x6f
	AddressTypeMainPK  = 0x06
	AddressTypeTestPK  = 0x07
)

// RawAddress represents a bitcoin address in raw format, with no check sum or encoding. It
// represents a "script template" for common locking and unlocking scripts, restricted in this
// package to the standard pay-to-public-key-hash and pay-to-public-key forms. It enables parsing
// and creating of locking/unlocking scripts as well as identifying the public key hash involved.
type RawAddress struct {
	scriptType byte
	data       []byte
}

// DecodeRawAddress decodes a binary raw address. It returns an error if there was an issue.
func DecodeRawAddress(b []byte) (RawAddress, error) {
	var result RawAddress
	err := result.Decode(b)
	return result, err
}

// addressPayloadSize returns the expected payload length for a type byte, or an error for
// unrecognized types. Empty addresses carry no payload.
func addressPayloadSize(typeByte byte) (int, error) {
	switch typeByte {
	case ScriptTypeEmpty:
		return 0, nil
	case AddressTypeMainPKH, AddressTypeTestPKH, ScriptTypePKH:
		return ScriptHashLength, nil
	case AddressTypeMainPK, AddressTypeTestPK, ScriptTypePK:
		return PublicKeyCompressedLength, nil
	}

	return 0, errors.Wrapf(ErrBadType, "type : %d", typeByte)
}

// set stores a validated type byte and payload, normalizing the versioned text type bytes to
// the script types used internally.
func (ra *RawAddress) set(typeByte byte, payload []byte) error {
	switch typeByte {
	case ScriptTypeEmpty:
		ra.scriptType = ScriptTypeEmpty
		ra.data = nil
		return nil
	case AddressTypeMainPKH, AddressTypeTestPKH, ScriptTypePKH:
		return ra.SetPKH(payload)
	}

	return ra.SetCompressedPublicKey(payload)
}

// Decode decodes a binary raw address.
func (ra *RawAddress) Decode(b []byte) error {
	if len(b) == 0 {
		return errors.Wrap(ErrBadType, "empty")
	}

	size, err := addressPayloadSize(b[0])
	if err != nil {
		return err
	}
	if len(b)-1 != size {
		return ErrBadScriptHashLength
	}

	return ra.set(b[0], b[1:])
}

// Deserialize reads a binary raw address from a reader.
func (ra *RawAddress) Deserialize(r io.Reader) error {
	var t [1]byte
	if _, err := io.ReadFull(r, t[:]); err != nil {
		return err
	}

	size, err := addressPayloadSize(t[0])
	if err != nil {
		return err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	return ra.set(t[0], payload)
}

/****************************************** PKH ***************************************************/

// NewRawAddressPKH creates an address from a public key hash.
func NewRawAddressPKH(pkh []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetPKH(pkh)
	return result, err
}

// SetPKH sets the type as ScriptTypePKH and sets the data to the specified Public Key Hash.
func (ra *RawAddress) SetPKH(pkh []byte) error {
	if len(pkh) != ScriptHashLength {
		return ErrBadScriptHashLength
	}

	ra.scriptType = ScriptTypePKH
	ra.data = pkh
	return nil
}

func (ra *RawAddress) GetPublicKeyHash() (Hash20, error) {
	if ra.scriptType != ScriptTypePKH {
		return Hash20{}, ErrWrongType
	}

	hash, err := NewHash20(ra.data)
	return *hash, err
}

/****************************************** PK ***************************************************/

// NewRawAddressPublicKey creates an address from a public key.
func NewRawAddressPublicKey(pk PublicKey) (RawAddress, error) {
	var result RawAddress
	err := result.SetPublicKey(pk)
	return result, err
}

// SetPublicKey sets the type as ScriptTypePK and sets the data to the specified public key.
func (ra *RawAddress) SetPublicKey(pk PublicKey) error {
	ra.scriptType = ScriptTypePK
	ra.data = pk.Bytes()
	return nil
}

// NewRawAddressCompressedPublicKey creates an address from a compressed public key.
func NewRawAddressCompressedPublicKey(pk []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetCompressedPublicKey(pk)
	return result, err
}

// SetCompressedPublicKey sets the type as ScriptTypePK and sets the data to the specified
// compressed public key.
func (ra *RawAddress) SetCompressedPublicKey(pk []byte) error {
	if len(pk) != PublicKeyCompressedLength {
		return ErrBadScriptHashLength
	}

	ra.scriptType = ScriptTypePK
	ra.data = pk
	return nil
}

func (ra *RawAddress) GetPublicKey() (PublicKey, error) {
	if ra.scriptType != ScriptTypePK {
		return PublicKey{}, ErrWrongType
	}

	return PublicKeyFromBytes(ra.data)
}

/************************************* Locking / Unlocking ****************************************/

// RawAddressFromLockingScript inspects a locking script and returns the raw address it pays to.
// Only P2PKH and P2PK locking scripts are recognized.
func RawAddressFromLockingScript(script []byte) (RawAddress, error) {
	s := Script(script)

	if s.IsP2PKH() {
		items, err := ParseScriptItems(bytes.NewReader(script), -1)
		if err != nil {
			return RawAddress{}, errors.Wrap(err, "parse")
		}

		for _, item := range items {
			if item.Type == ScriptItemTypePushData && len(item.Data) == ScriptHashLength {
				return NewRawAddressPKH(item.Data)
			}
		}

		return RawAddress{}, ErrNotP2PKH
	}

	if s.IsP2PK() {
		items, err := ParseScriptItems(bytes.NewReader(script), -1)
		if err != nil {
			return RawAddress{}, errors.Wrap(err, "parse")
		}

		for _, item := range items {
			if item.Type == ScriptItemTypePushData && len(item.Data) == PublicKeyCompressedLength {
				return NewRawAddressCompressedPublicKey(item.Data)
			}
		}

		return RawAddress{}, ErrNotP2PKH
	}

	return RawAddress{}, ErrUnknownScriptTemplate
}

// RawAddressFromUnlockingScript inspects a P2PKH unlocking script (signature plus public key) and
// returns the raw address whose key signed it.
func RawAddressFromUnlockingScript(script []byte) (RawAddress, error) {
	pubKey, err := PubKeyFromP2PKHSigScript(script)
	if err != nil {
		return RawAddress{}, errors.Wrap(err, "extract public key")
	}

	return NewRawAddressCompressedPublicKey(pubKey)
}

/***************************************** Common *************************************************/

// Type returns the script type of the address.
func (ra RawAddress) Type() byte {
	return ra.scriptType
}

// IsSpendable returns true if the address produces a locking script that can be unlocked.
func (ra RawAddress) IsSpendable() bool {
	return !ra.IsEmpty() && (ra.scriptType == ScriptTypePKH || ra.scriptType == ScriptTypePK)
}

// Bytes returns the byte encoded format of the address.
func (ra RawAddress) Bytes() []byte {
	if len(ra.data) == 0 {
		return nil
	}
	return append([]byte{ra.scriptType}, ra.data...)
}

func (ra RawAddress) Equal(other RawAddress) bool {
	return ra.scriptType == other.scriptType && bytes.Equal(ra.data, other.data)
}

// IsEmpty returns true if the address does not have a value set.
func (ra RawAddress) IsEmpty() bool {
	return len(ra.data) == 0
}

func (ra RawAddress) Serialize(w io.Writer) error {
	if ra.IsEmpty() {
		_, err := w.Write([]byte{ScriptTypeEmpty})
		return err
	}

	_, err := w.Write(ra.Bytes())
	return err
}

// Hash returns the public key hash corresponding to the address.
func (ra *RawAddress) Hash() (*Hash20, error) {
	switch ra.scriptType {
	case ScriptTypePKH:
		return NewHash20(ra.data)
	case ScriptTypePK:
		return NewHash20(Hash160(ra.data))
	}
	return nil, ErrUnknownScriptTemplate
}

// LockingScript returns the locking script that pays to this address.
func (ra RawAddress) LockingScript() (Script, error) {
	switch ra.scriptType {
	case ScriptTypePKH:
		hash, err := NewHash20(ra.data)
		if err != nil {
			return nil, errors.Wrap(err, "hash")
		}
		return PKHLockingScript(*hash)
	case ScriptTypePK:
		pubKey, err := PublicKeyFromBytes(ra.data)
		if err != nil {
			return nil, errors.Wrap(err, "public key")
		}
		return PKTemplate.LockingScript([]PublicKey{pubKey})
	}

	return nil, ErrUnknownScriptTemplate
}

// String returns the Base58Check encoded address text for the given network.
func (ra RawAddress) String(net Network) string {
	if ra.IsEmpty() {
		return ""
	}

	var addressType byte
	switch ra.scriptType {
	case ScriptTypePKH:
		if net == MainNet {
			addressType = AddressTypeMainPKH
		} else {
			addressType = AddressTypeTestPKH
		}
	case ScriptTypePK:
		hash := Hash160(ra.data)
		if net == MainNet {
			addressType = AddressTypeMainPK
		} else {
			addressType = AddressTypeTestPK
		}
		return encodeAddress(append([]byte{addressType}, hash...))
	default:
		return ""
	}

	return encodeAddress(append([]byte{addressType}, ra.data...))
}

// MarshalJSON converts to json.
func (ra RawAddress) MarshalJSON() ([]byte, error) {
	if len(ra.data) == 0 {
		return []byte("\"\""), nil
	}
	return []byte("\"" + hex.EncodeToString(ra.Bytes()) + "\""), nil
}

// UnmarshalJSON converts from json.
func (ra *RawAddress) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("Too short for RawAddress hex data : %d", len(data))
	}

	if len(data) == 2 {
		ra.scriptType = 0
		ra.data = nil
		return nil
	}

	raw, err := hex.DecodeString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}

	return ra.Decode(raw)
}

// MarshalText implements encoding.TextMarshaler.
func (ra RawAddress) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(ra.Bytes())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ra *RawAddress) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}

	return ra.Decode(b)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (ra RawAddress) MarshalBinary() ([]byte, error) {
	return ra.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (ra *RawAddress) UnmarshalBinary(data []byte) error {
	return ra.Decode(data)
}
