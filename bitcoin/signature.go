package bitcoin

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// Signature is an ECDSA signature over the secp256k1 curve.
type Signature struct {
	R big.Int
	S big.Int
}

// Verify reports whether the signature is valid for hash under pubkey.
func (s Signature) Verify(hash Hash32, pubkey PublicKey) bool {
	ecPubKey := &ecdsa.PublicKey{Curve: curveS256, X: &pubkey.X, Y: &pubkey.Y}
	return ecdsa.Verify(ecPubKey, hash[:], &s.R, &s.S)
}

// Validate reports whether R and S fall within the range the ECDSA spec requires: both in
// [1, N-1]. crypto/ecdsa itself only checks for nonzero; this enforces the tighter bound.
func (s Signature) Validate() error {
	if s.R.Sign() != 1 {
		return errors.New("signature R isn't 1 or more")
	}
	if s.S.Sign() != 1 {
		return errors.New("signature S isn't 1 or more")
	}
	if s.R.Cmp(curveS256Params.N) >= 0 {
		return errors.New("signature R is >= curve.N")
	}
	if s.S.Cmp(curveS256Params.N) >= 0 {
		return errors.New("signature S is >= curve.N")
	}
	return nil
}

// Equal reports whether s and o hold the same R and S values.
func (s Signature) Equal(o Signature) bool {
	return s.R.Cmp(&o.R) == 0 && s.S.Cmp(&o.S) == 0
}

// lowS returns s.S, negated mod N if it's above the curve's half order. Enforcing the low-S form
// is BIP 62's malleability fix: every valid signature has exactly one of {s, N-s} below the half
// order, so canonicalizing to that one rules out a second valid encoding of the same signature.
func (s Signature) lowS() big.Int {
	sigS := s.S
	if sigS.Cmp(curveHalfOrder) == 1 {
		sigS.Sub(curveS256.N, &sigS)
	}
	return sigS
}

// Bytes returns the low-S canonical DER encoding: 0x30 <len> 0x02 <lenR> R 0x02 <lenS> S.
func (s Signature) Bytes() []byte {
	return derEncode(s.R, s.lowS())
}

// Serialize writes the low-S canonical DER encoding of the signature to w.
func (s Signature) Serialize(w io.Writer) error {
	_, err := w.Write(s.Bytes())
	return err
}

// SignatureFromStr parses a hex-encoded DER signature.
func SignatureFromStr(s string) (Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, err
	}
	return SignatureFromBytes(b)
}

// SignatureFromBytes parses a DER-encoded signature: 0x30 <len> 0x02 <lenR> R 0x02 <lenS> S.
// Trailing bytes beyond the declared length are an error -- callers that frame a signature inside
// a larger buffer must slice it down first.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) < 8 {
		return Signature{}, errors.New("signature too short")
	}
	if b[0] != 0x30 {
		return Signature{}, errors.New("signature missing header byte")
	}

	length := int(b[1])
	if length+2 != len(b) || length+2 < 8 {
		return Signature{}, errors.New("signature has bad length")
	}

	r, s, err := derDecodeBody(b[2 : length+2])
	if err != nil {
		return Signature{}, err
	}

	result := Signature{R: r, S: s}
	return result, result.Validate()
}

// Deserialize reads a DER-encoded signature from r: a header byte, a length byte, then exactly
// that many body bytes.
func (s *Signature) Deserialize(r io.Reader) error {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		return errors.Wrap(err, "header")
	}
	if header[0] != 0x30 {
		return errors.New("signature missing header byte")
	}

	body := make([]byte, header[1])
	if _, err := io.ReadFull(r, body); err != nil {
		return errors.Wrap(err, "body")
	}

	rVal, sVal, err := derDecodeBody(body)
	if err != nil {
		return err
	}

	s.R, s.S = rVal, sVal
	return s.Validate()
}

// SignatureFromCompact parses the base64 "compact" signature format used by legacy message
// signing tools: a 1-byte recovery id followed by 32-byte R and 32-byte S.
func SignatureFromCompact(str string) (Signature, error) {
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return Signature{}, errors.Wrap(err, "base64 decode")
	}
	if len(b) != 65 {
		return Signature{}, fmt.Errorf("wrong length : %d should be 65", len(b))
	}

	recovery := int(b[0]) - 27 - 4
	if recovery < 0 {
		recovery += 4
	}
	if recovery < 0 || recovery > 3 {
		return Signature{}, fmt.Errorf("invalid recovery value : %d should be 0-3", recovery)
	}

	var result Signature
	result.R.SetBytes(b[1:33])
	result.S.SetBytes(b[33:])
	return result, result.Validate()
}

// ToCompact encodes the signature in the base64 "compact" format. The recovery id is hardcoded
// since this package never needs to recover a public key from a signature.
func (s Signature) ToCompact() string {
	buf := make([]byte, 0, 65)
	buf = append(buf, byte(27+4+1))
	buf = append(buf, fixedWidth32(s.R)...)
	buf = append(buf, fixedWidth32(s.S)...)
	return base64.StdEncoding.EncodeToString(buf)
}

func fixedWidth32(v big.Int) []byte {
	b := v.Bytes()
	if len(b) >= 32 {
		return b
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// String returns the signature's DER encoding as hex.
func (s Signature) String() string {
	return hex.EncodeToString(s.Bytes())
}

// SetString replaces the signature's value by parsing hex-encoded DER text.
func (s *Signature) SetString(str string) error {
	parsed, err := SignatureFromStr(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SetBytes replaces the signature's value by parsing DER-encoded bytes.
func (s *Signature) SetBytes(b []byte) error {
	parsed, err := SignatureFromBytes(b)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON encodes the signature as a quoted hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted hex string into the signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	return s.SetString(string(data[1 : len(data)-1]))
}

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) {
	b := s.Bytes()
	result := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(result, b)
	return result, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	b := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(b, text); err != nil {
		return err
	}
	return s.SetBytes(b)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Signature) UnmarshalBinary(data []byte) error {
	return s.SetBytes(data)
}

// derEncode builds a canonical DER signature, including its 0x30 <len> header, from
// already-canonicalized r and s values.
func derEncode(r, s big.Int) []byte {
	rb := canonicalizeInt(r)
	sb := canonicalizeInt(s)

	length := 4 + len(rb) + len(sb)
	b := make([]byte, 2, 2+length)
	b[0] = 0x30
	b[1] = byte(length)

	b = append(b, 0x02, byte(len(rb)))
	b = append(b, rb...)
	b = append(b, 0x02, byte(len(sb)))
	b = append(b, sb...)
	return b
}

// derDecodeBody parses the portion of a DER signature after the outer 0x30 <len> header:
// 0x02 <lenR> R 0x02 <lenS> S, with no trailing bytes permitted.
func derDecodeBody(body []byte) (r, s big.Int, err error) {
	index := 0

	if len(body) < 6 || body[index] != 0x02 {
		return r, s, errors.New("signature missing 1st int marker")
	}
	index++

	rLen := int(body[index])
	index++
	if rLen <= 0 || rLen > len(body)-index-3 {
		return r, s, errors.New("signature has bad R length")
	}

	rBytes := body[index : index+rLen]
	switch canonicalPaddingErr(rBytes) {
	case errNegativeValue:
		return r, s, errors.New("signature R is negative")
	case errExcessivelyPaddedValue:
		return r, s, errors.New("signature R is excessively padded")
	}
	r.SetBytes(rBytes)
	index += rLen

	if body[index] != 0x02 {
		return r, s, errors.New("signature missing 2nd int marker")
	}
	index++

	sLen := int(body[index])
	index++
	if sLen <= 0 || sLen > len(body)-index {
		return r, s, errors.New("signature has bad S length")
	}

	sBytes := body[index : index+sLen]
	switch canonicalPaddingErr(sBytes) {
	case errNegativeValue:
		return r, s, errors.New("signature S is negative")
	case errExcessivelyPaddedValue:
		return r, s, errors.New("signature S is excessively padded")
	}
	s.SetBytes(sBytes)
	index += sLen

	if index != len(body) {
		return r, s, fmt.Errorf("signature has bad final length %d != %d", index, len(body))
	}

	return r, s, nil
}

// canonicalizeInt returns val's big-endian bytes, padded with a leading zero if the high bit of
// the first byte is set (so it can't be misread as a negative number in DER), and forced to at
// least one byte (DER has no empty-integer encoding).
func canonicalizeInt(val big.Int) []byte {
	b := val.Bytes()
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		padded := make([]byte, len(b)+1)
		copy(padded[1:], b)
		return padded
	}
	return b
}

// Errors returned by canonicalPaddingErr.
var (
	errNegativeValue          = errors.New("value may be interpreted as negative")
	errExcessivelyPaddedValue = errors.New("value is excessively padded")
)

// canonicalPaddingErr reports whether b, a big-endian encoded integer, could be misread as
// negative (high bit set) or carries an unnecessary leading zero byte.
func canonicalPaddingErr(b []byte) error {
	switch {
	case b[0]&0x80 == 0x80:
		return errNegativeValue
	case len(b) > 1 && b[0] == 0x00 && b[1]&0x80 != 0x80:
		return errExcessivelyPaddedValue
	default:
		return nil
	}
}

// RFC 6979 deterministic nonce generation (https://tools.ietf.org/html/rfc6979), paired with BIP
// 62 low-S enforcement, so the same (key, hash) pair always produces the same signature and that
// signature is always in its unique canonical form.

var oneInitializer = []byte{0x01}

// signRFC6979 produces a deterministic ECDSA signature over hash using private key pk.
func signRFC6979(pk big.Int, hash []byte) (Signature, error) {
	N := curveS256.N
	k := nonceRFC6979(pk, hash)

	inv := new(big.Int).ModInverse(k, N)
	r, _ := curveS256.ScalarBaseMult(k.Bytes())
	r.Mod(r, N)
	if r.Sign() == 0 {
		return Signature{}, errors.New("calculated R is zero")
	}

	e := hashToInt(hash, curveS256)
	s := new(big.Int).Mul(&pk, r)
	s.Add(s, e)
	s.Mul(s, inv)
	s.Mod(s, N)
	if s.Cmp(curveHalfOrder) == 1 {
		s.Sub(N, s)
	}
	if s.Sign() == 0 {
		return Signature{}, errors.New("calculated S is zero")
	}

	return Signature{R: *r, S: *s}, nil
}

// nonceRFC6979 deterministically derives the ECDSA nonce k from private key pk and message digest
// hash, following RFC 6979 section 3.2.
func nonceRFC6979(pk big.Int, hash []byte) *big.Int {
	q := curveS256Params.N
	alg := sha256.New

	qlen := q.BitLen()
	holen := alg().Size()
	rolen := (qlen + 7) >> 3
	bx := append(int2octets(pk, rolen), bits2octets(hash, curveS256, rolen)...)

	// Step B, C.
	v := bytes.Repeat(oneInitializer, holen)
	k := make([]byte, holen)

	// Steps D-G.
	k = hmacSum(alg, k, append(append(v, 0x00), bx...))
	v = hmacSum(alg, k, v)
	k = hmacSum(alg, k, append(append(v, 0x01), bx...))
	v = hmacSum(alg, k, v)

	// Step H: generate candidates until one falls in [1, q).
	for {
		var t []byte
		for len(t)*8 < qlen {
			v = hmacSum(alg, k, v)
			t = append(t, v...)
		}

		candidate := hashToInt(t, curveS256)
		if candidate.Cmp(one) >= 0 && candidate.Cmp(q) < 0 {
			return candidate
		}

		k = hmacSum(alg, k, append(v, 0x00))
		v = hmacSum(alg, k, v)
	}
}

var one = big.NewInt(1)

func hmacSum(alg func() hash.Hash, key, msg []byte) []byte {
	h := hmac.New(alg, key)
	h.Write(msg)
	return h.Sum(nil)
}

// int2octets is RFC 6979 section 2.3.3: encode v as exactly rolen bytes, padding or truncating
// from the most significant end as needed.
func int2octets(v big.Int, rolen int) []byte {
	out := v.Bytes()

	if len(out) < rolen {
		padded := make([]byte, rolen)
		copy(padded[rolen-len(out):], out)
		return padded
	}
	if len(out) > rolen {
		trimmed := make([]byte, rolen)
		copy(trimmed, out[len(out)-rolen:])
		return trimmed
	}
	return out
}

// bits2octets is RFC 6979 section 2.3.4: reduce in modulo the curve order, expressed as rolen
// octets.
func bits2octets(in []byte, curve elliptic.Curve, rolen int) []byte {
	z1 := hashToInt(in, curve)
	z2 := new(big.Int).Sub(z1, curve.Params().N)
	if z2.Sign() < 0 {
		return int2octets(*z1, rolen)
	}
	return int2octets(*z2, rolen)
}

// hashToInt converts hash to an integer following [SECG]: truncate to the curve order's bit
// length, then right-shift off any excess bits. crypto/ecdsa uses the same convention.
func hashToInt(hash []byte, c elliptic.Curve) *big.Int {
	orderBits := c.Params().N.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(hash) > orderBytes {
		hash = hash[:orderBytes]
	}

	ret := new(big.Int).SetBytes(hash)
	if excess := len(hash)*8 - orderBits; excess > 0 {
		ret.Rsh(ret, uint(excess))
	}
	return ret
}
