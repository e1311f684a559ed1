// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tokenized/txsigner/bitcoin"

	"github.com/pkg/errors"
)

const (
	// TxVersion is the default transaction version used by NewMsgTx.
	TxVersion = 1

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// MaxPrevOutIndex is the maximum index the index field of a previous
	// outpoint can be.
	MaxPrevOutIndex uint32 = 0xffffffff

	// defaultTxInOutAlloc is the default size used for the backing array for
	// transaction inputs and outputs. It is intended to provide enough space
	// for the number of inputs and outputs in a typical transaction without
	// needing to grow the backing array multiple times.
	defaultTxInOutAlloc = 15

	// maxTxInPerMessage and maxTxOutPerMessage bound the number of inputs or
	// outputs a single transaction can declare, protecting deserialization
	// from memory exhaustion on malformed input.
	maxTxInPerMessage  = 1 << 24
	maxTxOutPerMessage = 1 << 24

	// maxScriptSize bounds the length of any single input or output script
	// read from the wire.
	maxScriptSize = 1 << 24
)

// OutPoint identifies a previous transaction output being spent: its transaction id and the
// index of the output within that transaction.
type OutPoint struct {
	Hash  bitcoin.Hash32 `json:"hash"`
	Index uint32         `json:"index"`
}

// NewOutPoint returns a new outpoint with the provided hash and index.
func NewOutPoint(hash *bitcoin.Hash32, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  *hash,
		Index: index,
	}
}

// OutPointFromStr parses a string into an outpoint. The format is "<txid:index>".
func OutPointFromStr(s string) (*OutPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return nil, errors.New("Invalid format: wrong colon count")
	}

	hash, err := bitcoin.NewHash32FromStr(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, "invalid hash")
	}

	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "invalid index")
	}

	return NewOutPoint(hash, uint32(index)), nil
}

// String returns the outpoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	buf := make([]byte, 2*bitcoin.Hash32Size+1, 2*bitcoin.Hash32Size+1+10)
	copy(buf, o.Hash.String())
	buf[2*bitcoin.Hash32Size] = ':'
	buf = strconv.AppendUint(buf, uint64(o.Index), 10)
	return string(buf)
}

// Serialize encodes op to the wire encoding for an OutPoint to w.
func (op *OutPoint) Serialize(w io.Writer) error {
	if err := op.Hash.Serialize(w); err != nil {
		return err
	}

	return binary.Write(w, endian, op.Index)
}

// Deserialize decodes op from the wire encoding for an OutPoint.
func (op *OutPoint) Deserialize(r io.Reader) error {
	if err := op.Hash.Deserialize(r); err != nil {
		return err
	}

	return binary.Read(r, endian, &op.Index)
}

// TxIn defines a bitcoin transaction input: the outpoint it spends, the unlocking script
// satisfying that outpoint's locking script, and the input's sequence number.
type TxIn struct {
	PreviousOutPoint OutPoint       `json:"outpoint"`
	UnlockingScript  bitcoin.Script `json:"script"`
	Sequence         uint32         `json:"sequence"`
}

// SerializeSize returns the number of bytes it would take to serialize the input.
func (t *TxIn) SerializeSize() int {
	// Outpoint Hash 32 bytes + Outpoint Index 4 bytes + Sequence 4 bytes +
	// serialized varint size for the length of UnlockingScript + UnlockingScript bytes.
	return 40 + VarIntSerializeSize(uint64(len(t.UnlockingScript))) + len(t.UnlockingScript)
}

// NewTxIn returns a new transaction input with the provided previous outpoint and unlocking
// script, defaulting to MaxTxInSequenceNum.
func NewTxIn(prevOut *OutPoint, unlockingScript bitcoin.Script) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		UnlockingScript:  unlockingScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// TxOut defines a bitcoin transaction output: the value it carries and the locking script that
// must be satisfied to spend it.
type TxOut struct {
	Value         uint64         `json:"value"`
	LockingScript bitcoin.Script `json:"locking_script"`
}

// Serialize encodes t to the wire encoding for a TxOut to w.
func (t *TxOut) Serialize(w io.Writer) error {
	return writeTxOut(w, t)
}

// Deserialize decodes t from the wire encoding for a TxOut.
func (t *TxOut) Deserialize(r io.Reader) error {
	return readTxOut(r, t)
}

// SerializeSize returns the number of bytes it would take to serialize the output.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.LockingScript))) + len(t.LockingScript)
}

// MarshalText implements encoding.TextMarshaler.
func (t TxOut) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize txout")
	}

	return []byte(hex.EncodeToString(buf.Bytes())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TxOut) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return errors.Wrap(err, "decode hex")
	}

	if err := t.Deserialize(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "deserialize txout")
	}

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t TxOut) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize txout")
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *TxOut) UnmarshalBinary(b []byte) error {
	if err := t.Deserialize(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "deserialize txout")
	}

	return nil
}

// NewTxOut returns a new transaction output with the provided value and locking script.
func NewTxOut(value uint64, lockingScript bitcoin.Script) *TxOut {
	return &TxOut{
		Value:         value,
		LockingScript: lockingScript,
	}
}

// MsgTx represents a bitcoin transaction: version, inputs, outputs, and lock time, along with
// memoized prehash midstates used by the sighash algorithm.
//
// Use AddTxIn and AddTxOut to build up the list of inputs and outputs; use the cache-invalidating
// mutators (SetTxOutValue, ClearCache) rather than writing TxIn/TxOut slices directly once a
// prehash has been computed from them.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32

	hashPrevOuts []byte
	hashSequence []byte
	hashOutputs  []byte
}

// AddTxIn adds a transaction input, invalidating the prevOuts and sequence prehashes.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
	msg.hashPrevOuts = nil
	msg.hashSequence = nil
}

// AddTxOut adds a transaction output, invalidating the outputs prehash.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
	msg.hashOutputs = nil
}

// SetTxOutValue updates the value of the output at index and invalidates the outputs prehash.
func (msg *MsgTx) SetTxOutValue(index int, value uint64) error {
	if index < 0 || index >= len(msg.TxOut) {
		return errors.Errorf("output index out of range : %d/%d", index, len(msg.TxOut))
	}

	msg.TxOut[index].Value = value
	msg.hashOutputs = nil
	return nil
}

// ClearCache discards all three memoized prehash midstates. Call this after any mutation of the
// input or output slices that bypassed AddTxIn/AddTxOut/SetTxOutValue.
func (msg *MsgTx) ClearCache() {
	msg.hashPrevOuts = nil
	msg.hashSequence = nil
	msg.hashOutputs = nil
}

// ClearOutputsCache discards only the memoized outputs prehash.
func (msg *MsgTx) ClearOutputsCache() {
	msg.hashOutputs = nil
}

// HashPrevOuts returns the cached sha256d of the concatenation of each input's previous
// outpoint (hash || index-LE32), computing and caching it on first use.
func (msg *MsgTx) HashPrevOuts() []byte {
	if msg.hashPrevOuts != nil {
		return msg.hashPrevOuts
	}

	var buf bytes.Buffer
	for _, in := range msg.TxIn {
		in.PreviousOutPoint.Serialize(&buf)
	}

	msg.hashPrevOuts = bitcoin.DoubleSha256(buf.Bytes())
	return msg.hashPrevOuts
}

// HashSequence returns the cached sha256d of the concatenation of each input's sequence number,
// computing and caching it on first use.
func (msg *MsgTx) HashSequence() []byte {
	if msg.hashSequence != nil {
		return msg.hashSequence
	}

	var buf bytes.Buffer
	for _, in := range msg.TxIn {
		binary.Write(&buf, endian, in.Sequence)
	}

	msg.hashSequence = bitcoin.DoubleSha256(buf.Bytes())
	return msg.hashSequence
}

// HashOutputs returns the cached sha256d of the concatenation of each output's serialized form,
// computing and caching it on first use.
func (msg *MsgTx) HashOutputs() []byte {
	if msg.hashOutputs != nil {
		return msg.hashOutputs
	}

	var buf bytes.Buffer
	for _, out := range msg.TxOut {
		out.Serialize(&buf)
	}

	msg.hashOutputs = bitcoin.DoubleSha256(buf.Bytes())
	return msg.hashOutputs
}

// TxHash returns sha256d of the transaction's serialized form, which is the transaction id.
func (msg *MsgTx) TxHash() *bitcoin.Hash32 {
	var buf bytes.Buffer
	_ = msg.Serialize(&buf)
	result := bitcoin.DoubleSha256Hash32(buf.Bytes())
	return &result
}

func (msg *MsgTx) String() string {
	return msg.describe(bitcoin.InvalidNet)
}

// StringWithAddresses is like String but additionally resolves and prints the raw address
// associated with each input's unlocking script and each output's locking script, when
// recognized as P2PKH or P2PK.
func (msg *MsgTx) StringWithAddresses(net bitcoin.Network) string {
	return msg.describe(net)
}

// describe builds the multi-line text form of the transaction. Addresses are included when net
// names a real network.
func (msg *MsgTx) describe(net bitcoin.Network) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TxId: %s (%d bytes)\n", msg.TxHash(), msg.SerializeSize())
	fmt.Fprintf(&sb, "  Version: %d\n", msg.Version)

	sb.WriteString("  Inputs:\n\n")
	for _, input := range msg.TxIn {
		fmt.Fprintf(&sb, "    Outpoint: %d - %s\n", input.PreviousOutPoint.Index,
			input.PreviousOutPoint.Hash)
		fmt.Fprintf(&sb, "    Script: %s\n", input.UnlockingScript)
		fmt.Fprintf(&sb, "    Sequence: %x\n", input.Sequence)
		if net != bitcoin.InvalidNet {
			if ra, err := bitcoin.RawAddressFromUnlockingScript(input.UnlockingScript); err == nil {
				fmt.Fprintf(&sb, "    Address: %s\n", ra.String(net))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("  Outputs:\n\n")
	for _, output := range msg.TxOut {
		fmt.Fprintf(&sb, "    Value: %.08f\n", float64(output.Value)/100000000.0)
		fmt.Fprintf(&sb, "    Script: %s\n", output.LockingScript)
		if net != bitcoin.InvalidNet {
			if ra, err := bitcoin.RawAddressFromLockingScript(output.LockingScript); err == nil {
				fmt.Fprintf(&sb, "    Address: %s\n", ra.String(net))
			}
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "  LockTime: %d\n", msg.LockTime)
	return sb.String()
}

// Copy creates a deep copy of the transaction so the original is unaffected when the copy is
// manipulated. The copy starts with an empty prehash cache.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := &MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, len(msg.TxIn)),
		TxOut:    make([]*TxOut, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for i, oldTxIn := range msg.TxIn {
		newTx.TxIn[i] = &TxIn{
			PreviousOutPoint: oldTxIn.PreviousOutPoint,
			UnlockingScript:  oldTxIn.UnlockingScript.Copy(),
			Sequence:         oldTxIn.Sequence,
		}
	}

	for i, oldTxOut := range msg.TxOut {
		newTx.TxOut[i] = &TxOut{
			Value:         oldTxOut.Value,
			LockingScript: oldTxOut.LockingScript.Copy(),
		}
	}

	return newTx
}

// BtcDecode decodes r into the receiver using the wire transaction encoding: version, varint
// input count, inputs, varint output count, outputs, lock time.
func (msg *MsgTx) BtcDecode(r io.Reader) error {
	var version int32
	if err := binary.Read(r, endian, &version); err != nil {
		return err
	}
	msg.Version = version

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxInPerMessage {
		return errors.Errorf("too many inputs to deserialize [count %d, max %d]", count,
			maxTxInPerMessage)
	}

	txIns := make([]TxIn, count)
	msg.TxIn = make([]*TxIn, count)
	for i := uint64(0); i < count; i++ {
		ti := &txIns[i]
		msg.TxIn[i] = ti
		if err := readTxIn(r, ti); err != nil {
			return err
		}
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxOutPerMessage {
		return errors.Errorf("too many outputs to deserialize [count %d, max %d]", count,
			maxTxOutPerMessage)
	}

	txOuts := make([]TxOut, count)
	msg.TxOut = make([]*TxOut, count)
	for i := uint64(0); i < count; i++ {
		to := &txOuts[i]
		msg.TxOut[i] = to
		if err := readTxOut(r, to); err != nil {
			return err
		}
	}

	if err := binary.Read(r, endian, &msg.LockTime); err != nil {
		return err
	}

	msg.ClearCache()
	return nil
}

// Deserialize decodes a transaction from r. There is currently no difference between the wire
// encoding and the long-term storage encoding, so this is equivalent to BtcDecode.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	return msg.BtcDecode(r)
}

// BtcEncode encodes the receiver to w using the wire transaction encoding.
func (msg *MsgTx) BtcEncode(w io.Writer) error {
	if err := binary.Write(w, endian, msg.Version); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}

	return binary.Write(w, endian, msg.LockTime)
}

// Serialize encodes the transaction to w. There is currently no difference between the wire
// encoding and the long-term storage encoding, so this is equivalent to BtcEncode.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return msg.BtcEncode(w)
}

// SerializeSize returns the number of bytes it would take to serialize the transaction.
func (msg *MsgTx) SerializeSize() int {
	n := 8 + VarIntSerializeSize(uint64(len(msg.TxIn))) + VarIntSerializeSize(uint64(len(msg.TxOut)))

	for _, txIn := range msg.TxIn {
		n += txIn.SerializeSize()
	}
	for _, txOut := range msg.TxOut {
		n += txOut.SerializeSize()
	}

	return n
}

// MarshalText implements encoding.TextMarshaler.
func (msg MsgTx) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize tx")
	}

	return []byte(hex.EncodeToString(buf.Bytes())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (msg *MsgTx) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return errors.Wrap(err, "decode hex")
	}

	if err := msg.Deserialize(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "deserialize tx")
	}

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (msg MsgTx) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize tx")
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (msg *MsgTx) UnmarshalBinary(b []byte) error {
	if err := msg.Deserialize(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "deserialize tx")
	}

	return nil
}

// LockingScriptLocs returns the start offset of each output's locking script within the raw
// serialized transaction. The caller can obtain the length of each script from the corresponding
// TxOut entry.
func (msg *MsgTx) LockingScriptLocs() []int {
	numTxOut := len(msg.TxOut)
	if numTxOut == 0 {
		return nil
	}

	n := 4 + VarIntSerializeSize(uint64(len(msg.TxIn))) + VarIntSerializeSize(uint64(numTxOut))
	for _, txIn := range msg.TxIn {
		n += txIn.SerializeSize()
	}

	locs := make([]int, numTxOut)
	for i, txOut := range msg.TxOut {
		n += 8 + VarIntSerializeSize(uint64(len(txOut.LockingScript)))
		locs[i] = n
		n += len(txOut.LockingScript)
	}

	return locs
}

// NewMsgTx returns a new transaction with the given version and no inputs or outputs. LockTime
// defaults to zero (valid immediately).
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{
		Version: version,
		TxIn:    make([]*TxIn, 0, defaultTxInOutAlloc),
		TxOut:   make([]*TxOut, 0, defaultTxInOutAlloc),
	}
}

func readTxIn(r io.Reader, ti *TxIn) error {
	if err := ti.PreviousOutPoint.Deserialize(r); err != nil {
		return err
	}

	var err error
	ti.UnlockingScript, err = ReadVarBytes(r, maxScriptSize, "unlocking script")
	if err != nil {
		return err
	}

	return binary.Read(r, endian, &ti.Sequence)
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	if err := ti.PreviousOutPoint.Serialize(w); err != nil {
		return err
	}

	if err := WriteVarBytes(w, ti.UnlockingScript); err != nil {
		return err
	}

	return binary.Write(w, endian, ti.Sequence)
}

func readTxOut(r io.Reader, to *TxOut) error {
	if err := binary.Read(r, endian, &to.Value); err != nil {
		return err
	}

	var err error
	to.LockingScript, err = ReadVarBytes(r, maxScriptSize, "locking script")
	return err
}

func writeTxOut(w io.Writer, to *TxOut) error {
	if err := binary.Write(w, endian, to.Value); err != nil {
		return err
	}

	return WriteVarBytes(w, to.LockingScript)
}

// Bytes returns the wire encoded form of the transaction.
func (msg MsgTx) Bytes() []byte {
	buf := &bytes.Buffer{}
	msg.Serialize(buf)
	return buf.Bytes()
}
